package transactionacceptor

import (
	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/constants"
	"github.com/shardledger/shardd/domain/consensus/utils/txscript"
)

// IsFinalizedTransaction determines whether or not a transaction is finalized.
func IsFinalizedTransaction(tx *externalapi.DomainTransaction, blockHeight uint64, blockTime int64) bool {
	// Lock time of zero means the transaction is finalized.
	lockTime := tx.LockTime
	if lockTime == 0 {
		return true
	}

	// The lock time field of a transaction is either a block height at
	// which the transaction is finalized or a timestamp depending on if the
	// value is before the constants.LockTimeThreshold. When it is under the
	// threshold it is a block height.
	blockTimeOrHeight := int64(0)
	if lockTime < constants.LockTimeThreshold {
		blockTimeOrHeight = int64(blockHeight)
	} else {
		blockTimeOrHeight = blockTime
	}
	if int64(lockTime) < blockTimeOrHeight {
		return true
	}

	// At this point, the transaction's lock time hasn't occurred yet, but
	// the transaction might still be finalized if the sequence number
	// for all transaction inputs is maxed out.
	for _, input := range tx.Inputs {
		if input.Sequence != constants.MaxTxInSequenceNum {
			return false
		}
	}
	return true
}

func (ta *TransactionAcceptor) checkTransactionFinality() error {
	// Once median time locks are active, time based lock times are
	// compared against the median time past instead of the block
	// timestamp.
	blockTime := ta.context.BlockTimestamp
	if ta.context.Deployments.IsActive(model.DeploymentMedianTimeLocks, ta.context.Height) {
		blockTime = ta.context.MedianTimePast
	}

	if !IsFinalizedTransaction(ta.transaction, ta.context.Height, blockTime) {
		return errors.Wrapf(ruleerrors.ErrUnfinalizedTx, "transaction with lock time %d "+
			"is not finalized at height %d and time %d", ta.transaction.LockTime, ta.context.Height, blockTime)
	}
	return nil
}

// checkCoinbaseMaturity ensures the transaction is not spending coins which
// have not yet reached the required coinbase maturity.
func (ta *TransactionAcceptor) checkCoinbaseMaturity(entries []*externalapi.UTXOEntry) error {
	height := ta.context.Height
	maturity := ta.context.Params.CoinbaseMaturity
	for i, entry := range entries {
		if !entry.IsCoinbase {
			continue
		}
		originHeight := entry.BlockHeight
		if height < originHeight || height-originHeight < maturity {
			return errors.Wrapf(ruleerrors.ErrImmatureSpend, "tried to spend coinbase "+
				"transaction output %s from height %d at height %d before required "+
				"maturity of %d blocks", ta.transaction.Inputs[i].PreviousOutpoint,
				originHeight, height, maturity)
		}
	}
	return nil
}

// checkAmounts ensures the referenced outputs are in range and that the
// transaction doesn't spend more than they sum to.
func (ta *TransactionAcceptor) checkAmounts(entries []*externalapi.UTXOEntry) error {
	var totalSatoshiIn uint64
	for i, entry := range entries {
		if entry.Amount > constants.MaxSatoshi {
			return errors.Wrapf(ruleerrors.ErrBadTxInputValue, "output %s has value of %s which is "+
				"higher than max allowed value of %s", ta.transaction.Inputs[i].PreviousOutpoint,
				btcutil.Amount(entry.Amount), btcutil.Amount(constants.MaxSatoshi))
		}

		// The accumulator could overflow, so check for overflow.
		lastSatoshiIn := totalSatoshiIn
		totalSatoshiIn += entry.Amount
		if totalSatoshiIn < lastSatoshiIn || totalSatoshiIn > constants.MaxSatoshi {
			return errors.Wrapf(ruleerrors.ErrBadTxInputValue, "total value of all transaction "+
				"inputs is higher than max allowed value of %s", btcutil.Amount(constants.MaxSatoshi))
		}
	}

	// Overflow and range of the outputs were ruled out by the sanity
	// checks.
	var totalSatoshiOut uint64
	for _, output := range ta.transaction.Outputs {
		totalSatoshiOut += output.Value
	}

	if totalSatoshiIn < totalSatoshiOut {
		return errors.Wrapf(ruleerrors.ErrSpendTooHigh, "total value of all transaction inputs "+
			"is %s which is less than the amount spent of %s",
			btcutil.Amount(totalSatoshiIn), btcutil.Amount(totalSatoshiOut))
	}
	return nil
}

// SigOpCost returns the signature operation cost of tx. Legacy sigops in
// scripts are scaled by the witness discount, and witness program spends add
// their sigops unscaled. entries holds the outputs spent by tx, and is nil
// for a coinbase.
func SigOpCost(tx *externalapi.DomainTransaction, entries []*externalapi.UTXOEntry) int {
	legacySigOps := 0
	for _, input := range tx.Inputs {
		legacySigOps += txscript.GetSigOpCount(input.SignatureScript)
	}
	for _, output := range tx.Outputs {
		legacySigOps += txscript.GetSigOpCount(output.ScriptPublicKey)
	}

	cost := legacySigOps * constants.WitnessScaleFactor
	for i, entry := range entries {
		if entry == nil {
			continue
		}
		cost += txscript.GetWitnessSigOpCount(entry.ScriptPublicKey, tx.Inputs[i].Witness)
	}
	return cost
}

func (ta *TransactionAcceptor) checkSigOpCost(entries []*externalapi.UTXOEntry) error {
	maxCost := ta.context.Params.MaxBlockSigOpsCost / constants.MaxTxSigOpsCostDivisor
	cost := SigOpCost(ta.transaction, entries)
	if uint64(cost) > maxCost {
		return errors.Wrapf(ruleerrors.ErrTxTooManySigOps, "transaction has a signature "+
			"operation cost of %d, max allowed is %d", cost, maxCost)
	}
	return nil
}

// ScriptFlags returns the script rules in force at height.
func ScriptFlags(deployments model.Deployments, height uint64) model.ScriptFlags {
	var flags model.ScriptFlags
	if deployments.IsActive(model.DeploymentStrictDER, height) {
		flags |= model.ScriptVerifyStrictDER
	}
	if deployments.IsActive(model.DeploymentSegwit, height) {
		flags |= model.ScriptVerifyWitness
	}
	return flags
}

func (ta *TransactionAcceptor) validateScripts(entries []*externalapi.UTXOEntry) error {
	flags := ScriptFlags(ta.context.Deployments, ta.context.Height)
	for i, input := range ta.transaction.Inputs {
		sighashContext := &model.SighashContext{
			Transaction: ta.transaction,
			InputIndex:  i,
			Amount:      entries[i].Amount,
			Flags:       flags,
		}
		err := ta.context.ScriptEvaluator.Verify(entries[i].ScriptPublicKey, input.SignatureScript, sighashContext)
		if err != nil {
			return errors.Wrapf(ruleerrors.ErrScriptValidation, "input %d spending %s: %s",
				i, input.PreviousOutpoint, err)
		}
	}
	return nil
}
