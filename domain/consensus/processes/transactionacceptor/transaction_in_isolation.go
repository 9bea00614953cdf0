package transactionacceptor

import (
	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/constants"
	"github.com/shardledger/shardd/domain/consensus/utils/serialization"
)

// checkTransactionSanity performs some preliminary checks on a transaction to
// ensure it is sane. These checks are context free.
func checkTransactionSanity(tx *externalapi.DomainTransaction, index int) error {
	// A transaction must have at least one input.
	if len(tx.Inputs) == 0 {
		return errors.Wrap(ruleerrors.ErrNoTxInputs, "transaction has no inputs")
	}
	if len(tx.Outputs) == 0 {
		return errors.Wrap(ruleerrors.ErrNoTxOutputs, "transaction has no outputs")
	}

	err := checkTransactionOutputValues(tx)
	if err != nil {
		return err
	}

	// Check for duplicate transaction inputs.
	existingTxOut := make(map[externalapi.DomainOutpoint]struct{})
	for _, input := range tx.Inputs {
		if _, exists := existingTxOut[input.PreviousOutpoint]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTxInputs, "transaction "+
				"contains duplicate input %s", input.PreviousOutpoint)
		}
		existingTxOut[input.PreviousOutpoint] = struct{}{}
	}

	if index == 0 && tx.IsCoinbase() {
		return nil
	}

	// Previous transaction outputs referenced by the inputs to this
	// transaction must not be null.
	for _, input := range tx.Inputs {
		if input.PreviousOutpoint.IsNull() {
			return errors.Wrap(ruleerrors.ErrBadTxInput, "transaction "+
				"input refers to previous output that is null")
		}
	}
	return nil
}

// checkTransactionOutputValues ensures the transaction amounts are in range.
// Each transaction output must not be more than the max allowed per
// transaction. Also, the total of all outputs must abide by the same
// restrictions.
func checkTransactionOutputValues(tx *externalapi.DomainTransaction) error {
	var totalSatoshi uint64
	for _, output := range tx.Outputs {
		satoshi := output.Value
		if satoshi > constants.MaxSatoshi {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "transaction output value of %s is "+
				"higher than max allowed value of %s", btcutil.Amount(satoshi), btcutil.Amount(constants.MaxSatoshi))
		}

		// Binary arithmetic guarantees that any overflow is detected and reported.
		newTotalSatoshi := totalSatoshi + satoshi
		if newTotalSatoshi < totalSatoshi || newTotalSatoshi > constants.MaxSatoshi {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
				"outputs exceeds max allowed value of %s", btcutil.Amount(constants.MaxSatoshi))
		}
		totalSatoshi = newTotalSatoshi
	}
	return nil
}

// TransactionWeight returns the weight of tx: its size without witness data
// scaled by the witness discount, plus the witness bytes.
func TransactionWeight(tx *externalapi.DomainTransaction) uint64 {
	baseSize := uint64(serialization.TransactionSerializeSize(tx, false))
	totalSize := uint64(serialization.TransactionSerializeSize(tx, true))
	return baseSize*(constants.WitnessScaleFactor-1) + totalSize
}

func (ta *TransactionAcceptor) checkTransactionWeight() error {
	weight := TransactionWeight(ta.transaction)
	if weight > ta.context.Params.MaxBlockWeight {
		return errors.Wrapf(ruleerrors.ErrTxWeightTooHigh, "transaction weight of %d is "+
			"higher than the max of %d", weight, ta.context.Params.MaxBlockWeight)
	}
	return nil
}
