package blockacceptor

import (
	"bytes"
	"math"

	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/transactionacceptor"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/constants"
	"github.com/shardledger/shardd/domain/consensus/utils/hashes"
	"github.com/shardledger/shardd/domain/consensus/utils/merkle"
	"github.com/shardledger/shardd/domain/consensus/utils/txscript"
)

func (ba *BlockAcceptor) checkTransactions(block *externalapi.DomainBlock, context *Context) error {
	transactions := block.Content.Transactions()

	// A block must have at least one transaction.
	if len(transactions) == 0 {
		return errors.Wrap(ruleerrors.ErrNoTransactions, "block does not contain any transactions")
	}

	err := checkCoinbasePlacement(transactions)
	if err != nil {
		return err
	}

	err = checkDuplicateTransactions(transactions)
	if err != nil {
		return err
	}

	err = ba.checkSigOpCost(transactions, context)
	if err != nil {
		return err
	}

	err = ba.checkCoinbaseHeight(transactions[constants.CoinbaseTransactionIndex], context)
	if err != nil {
		return err
	}

	err = ba.checkWitnessCommitment(transactions, context)
	if err != nil {
		return err
	}

	return ba.checkCoinbaseValue(transactions, context)
}

// checkCoinbasePlacement ensures the first transaction, and only it, is a
// coinbase with a signature script of valid length.
func checkCoinbasePlacement(transactions []*externalapi.DomainTransaction) error {
	coinbase := transactions[constants.CoinbaseTransactionIndex]
	if !coinbase.IsCoinbase() {
		return errors.Wrap(ruleerrors.ErrFirstTxNotCoinbase, "first transaction in "+
			"block is not a coinbase")
	}

	for i, tx := range transactions[constants.CoinbaseTransactionIndex+1:] {
		if tx.IsCoinbase() {
			return errors.Wrapf(ruleerrors.ErrMultipleCoinbases, "block contains second "+
				"coinbase at index %d", i+constants.CoinbaseTransactionIndex+1)
		}
	}

	scriptLength := len(coinbase.Inputs[0].SignatureScript)
	if scriptLength < constants.MinCoinbaseScriptLen || scriptLength > constants.MaxCoinbaseScriptLen {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseScriptLen, "coinbase transaction script "+
			"length of %d is out of range (min: %d, max: %d)",
			scriptLength, constants.MinCoinbaseScriptLen, constants.MaxCoinbaseScriptLen)
	}
	return nil
}

func checkDuplicateTransactions(transactions []*externalapi.DomainTransaction) error {
	existingTxIDs := make(map[externalapi.DomainTransactionID]struct{}, len(transactions))
	for _, tx := range transactions {
		id := consensushashing.TransactionID(tx)
		if _, exists := existingTxIDs[*id]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTx, "block contains duplicate "+
				"transaction %s", id)
		}
		existingTxIDs[*id] = struct{}{}
	}
	return nil
}

// checkSigOpCost ensures the signature operation cost of all transactions
// together is within the block limit. Inputs the overlay can't resolve
// contribute no witness sigops; the transaction checks reject them anyway.
func (ba *BlockAcceptor) checkSigOpCost(transactions []*externalapi.DomainTransaction, context *Context) error {
	totalCost := uint64(0)
	for i, tx := range transactions {
		var entries []*externalapi.UTXOEntry
		if i != constants.CoinbaseTransactionIndex {
			entries = make([]*externalapi.UTXOEntry, len(tx.Inputs))
			for j, input := range tx.Inputs {
				entries[j], _ = context.Overlay.Entry(i, &input.PreviousOutpoint)
			}
		}

		totalCost += uint64(transactionacceptor.SigOpCost(tx, entries))
		if totalCost > ba.params.MaxBlockSigOpsCost {
			return errors.Wrapf(ruleerrors.ErrTooManySigOps, "block contains too many "+
				"signature operations - got more than %d, max %d", totalCost, ba.params.MaxBlockSigOpsCost)
		}
	}
	return nil
}

// checkCoinbaseHeight ensures the coinbase signature script starts with the
// serialized block height once that is required.
func (ba *BlockAcceptor) checkCoinbaseHeight(coinbase *externalapi.DomainTransaction, context *Context) error {
	if !context.Deployments.IsActive(model.DeploymentHeightInCoinbase, context.Height) {
		return nil
	}

	serializedHeight, err := txscript.ExtractCoinbaseHeight(coinbase.Inputs[0].SignatureScript)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseHeight, "%s", err)
	}
	if serializedHeight != context.Height {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseHeight, "the coinbase signature script "+
			"serialized block height is %d when %d was expected", serializedHeight, context.Height)
	}
	return nil
}

// witnessCommitment returns the commitment carried by the last coinbase
// output that carries one.
func witnessCommitment(coinbase *externalapi.DomainTransaction) ([]byte, bool) {
	for i := len(coinbase.Outputs) - 1; i >= 0; i-- {
		script := coinbase.Outputs[i].ScriptPublicKey
		if len(script) >= constants.WitnessCommitmentScriptLen &&
			bytes.HasPrefix(script, constants.WitnessCommitmentHeader[:]) {

			return script[constants.WitnessCommitmentHeaderLen:constants.WitnessCommitmentScriptLen], true
		}
	}
	return nil, false
}

// CalculateWitnessCommitment returns the commitment a coinbase carries for
// transactions with the given witness reserved value.
func CalculateWitnessCommitment(transactions []*externalapi.DomainTransaction,
	witnessReservedValue []byte) *externalapi.DomainHash {

	witnessMerkleRoot := merkle.CalculateWitnessMerkleRoot(externalapi.NewTransactionsContent(transactions))
	writer := hashes.NewDoubleHashWriter()
	writer.InfallibleWrite(witnessMerkleRoot[:])
	writer.InfallibleWrite(witnessReservedValue)
	return writer.Finalize()
}

// checkWitnessCommitment ensures that witness data, if any, is committed to
// by the coinbase.
func (ba *BlockAcceptor) checkWitnessCommitment(transactions []*externalapi.DomainTransaction, context *Context) error {
	hasWitness := false
	for _, tx := range transactions {
		if tx.HasWitness() {
			hasWitness = true
			break
		}
	}

	if !context.Deployments.IsActive(model.DeploymentSegwit, context.Height) {
		if hasWitness {
			return errors.Wrap(ruleerrors.ErrUnexpectedWitness, "block contains witness "+
				"data before witness activation")
		}
		return nil
	}

	coinbase := transactions[constants.CoinbaseTransactionIndex]
	commitment, found := witnessCommitment(coinbase)
	if !found {
		if hasWitness {
			return errors.Wrap(ruleerrors.ErrUnexpectedWitness, "block contains witness "+
				"data without a witness commitment")
		}
		return nil
	}

	coinbaseWitness := coinbase.Inputs[0].Witness
	if len(coinbaseWitness) != 1 || len(coinbaseWitness[0]) != constants.WitnessReservedValueLen {
		return errors.Wrapf(ruleerrors.ErrBadWitnessCommitment, "the coinbase witness must be a "+
			"single %d byte reserved value", constants.WitnessReservedValueLen)
	}

	expectedCommitment := CalculateWitnessCommitment(transactions, coinbaseWitness[0])
	if !bytes.Equal(commitment, expectedCommitment[:]) {
		return errors.Wrapf(ruleerrors.ErrBadWitnessCommitment, "witness commitment %x doesn't "+
			"match the calculated value %x", commitment, expectedCommitment[:])
	}
	return nil
}

// checkCoinbaseValue ensures the coinbase doesn't pay more than the block
// subsidy plus the fees of the block transactions. The fee of a transaction
// whose inputs can't be resolved, or that spends more than it has, counts
// as zero; the transaction checks reject it anyway.
func (ba *BlockAcceptor) checkCoinbaseValue(transactions []*externalapi.DomainTransaction, context *Context) error {
	var totalFees uint64
	for i, tx := range transactions[constants.CoinbaseTransactionIndex+1:] {
		totalFees = addSaturating(totalFees, transactionFee(tx, i+constants.CoinbaseTransactionIndex+1, context))
	}

	var totalSatoshiOut uint64
	for _, output := range transactions[constants.CoinbaseTransactionIndex].Outputs {
		lastSatoshiOut := totalSatoshiOut
		totalSatoshiOut += output.Value
		if totalSatoshiOut < lastSatoshiOut {
			return errors.Wrap(ruleerrors.ErrBadCoinbaseValue, "coinbase outputs overflow")
		}
	}

	expectedSatoshiOut := addSaturating(ba.params.CalcBlockSubsidy(context.Height), totalFees)
	if totalSatoshiOut > expectedSatoshiOut {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseValue, "coinbase transaction for block pays %s "+
			"which is more than expected value of %s",
			btcutil.Amount(totalSatoshiOut), btcutil.Amount(expectedSatoshiOut))
	}
	return nil
}

func transactionFee(tx *externalapi.DomainTransaction, index int, context *Context) uint64 {
	var totalSatoshiIn uint64
	for _, input := range tx.Inputs {
		entry, ok := context.Overlay.Entry(index, &input.PreviousOutpoint)
		if !ok || entry.Amount > constants.MaxSatoshi {
			continue
		}
		totalSatoshiIn = addSaturating(totalSatoshiIn, entry.Amount)
	}

	var totalSatoshiOut uint64
	for _, output := range tx.Outputs {
		if output.Value > constants.MaxSatoshi {
			return 0
		}
		totalSatoshiOut = addSaturating(totalSatoshiOut, output.Value)
	}

	if totalSatoshiIn < totalSatoshiOut || totalSatoshiIn > constants.MaxSatoshi {
		return 0
	}
	return totalSatoshiIn - totalSatoshiOut
}

// addSaturating returns a+b, or math.MaxUint64 if the sum overflows.
func addSaturating(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}
