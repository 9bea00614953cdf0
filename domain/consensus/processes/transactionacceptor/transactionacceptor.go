package transactionacceptor

import (
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/outputoverlay"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/dagconfig"
)

// Context holds what every transaction of one candidate block is checked
// against. It is shared read-only by all the block's acceptors.
type Context struct {
	Params          *dagconfig.Params
	Level           model.VerificationLevel
	ScriptEvaluator model.ScriptEvaluator
	Overlay         *outputoverlay.OutputOverlay

	Height         uint64
	BlockTimestamp int64
	MedianTimePast int64
	Deployments    model.Deployments

	// InputMedianTimes maps the confirmation height of every committed
	// output spent under a seconds based relative lock to the past median
	// time at MedianTimeHeight of it.
	InputMedianTimes map[uint64]int64
}

// TransactionAcceptor validates a single transaction of a candidate block
type TransactionAcceptor struct {
	context     *Context
	index       int
	transaction *externalapi.DomainTransaction
}

// New instantiates a new TransactionAcceptor for the transaction at index
func New(context *Context, index int, transaction *externalapi.DomainTransaction) *TransactionAcceptor {
	return &TransactionAcceptor{
		context:     context,
		index:       index,
		transaction: transaction,
	}
}

// Index returns the position of the acceptor's transaction in its block
func (ta *TransactionAcceptor) Index() int {
	return ta.index
}

// Check validates the transaction. Violations are returned wrapped in an
// ErrInvalidTransaction carrying the transaction's index. Check doesn't
// mutate anything and is safe to run concurrently with other acceptors of
// the same block.
func (ta *TransactionAcceptor) Check() error {
	err := ta.check()
	if err != nil {
		return ruleerrors.NewErrInvalidTransaction(ta.index, consensushashing.TransactionID(ta.transaction), err)
	}
	return nil
}

func (ta *TransactionAcceptor) check() error {
	tx := ta.transaction

	err := checkTransactionSanity(tx, ta.index)
	if err != nil {
		return err
	}

	err = ta.checkTransactionWeight()
	if err != nil {
		return err
	}

	err = ta.checkTransactionFinality()
	if err != nil {
		return err
	}

	if ta.index == 0 && tx.IsCoinbase() {
		return ta.checkSigOpCost(nil)
	}

	entries, err := ta.resolveInputs()
	if err != nil {
		return err
	}

	err = ta.checkCoinbaseMaturity(entries)
	if err != nil {
		return err
	}

	err = ta.checkSequenceLocks(entries)
	if err != nil {
		return err
	}

	err = ta.checkAmounts(entries)
	if err != nil {
		return err
	}

	err = ta.checkSigOpCost(entries)
	if err != nil {
		return err
	}

	if ta.context.Level == model.VerificationLevelFull {
		return ta.validateScripts(entries)
	}
	return nil
}

func (ta *TransactionAcceptor) resolveInputs() ([]*externalapi.UTXOEntry, error) {
	entries := make([]*externalapi.UTXOEntry, len(ta.transaction.Inputs))
	for i, input := range ta.transaction.Inputs {
		entry, err := ta.context.Overlay.Lookup(ta.index, &input.PreviousOutpoint)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}
	return entries, nil
}
