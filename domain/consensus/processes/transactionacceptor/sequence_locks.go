package transactionacceptor

import (
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/constants"
)

// SequenceLock is the height and median time past a transaction's relative
// lock times require. The block including the transaction must have a height
// above BlockHeight, and its parent a median time past above Seconds. A
// value of -1 doesn't constrain anything.
type SequenceLock struct {
	Seconds     int64
	BlockHeight int64
}

func sequenceLocksApply(tx *externalapi.DomainTransaction, deployments model.Deployments, height uint64) bool {
	return tx.Version >= 2 && !tx.IsCoinbase() && deployments.IsActive(model.DeploymentSequenceLocks, height)
}

// TimeLockedInputs returns the indexes of the inputs of tx whose relative
// lock time is measured in seconds. It returns nil when tx isn't subject to
// relative lock times at height.
func TimeLockedInputs(tx *externalapi.DomainTransaction, deployments model.Deployments, height uint64) []int {
	if !sequenceLocksApply(tx, deployments, height) {
		return nil
	}
	var inputIndexes []int
	for i, input := range tx.Inputs {
		if input.Sequence&constants.SequenceLockTimeDisabled == 0 &&
			input.Sequence&constants.SequenceLockTimeIsSeconds != 0 {
			inputIndexes = append(inputIndexes, i)
		}
	}
	return inputIndexes
}

// MedianTimeHeight returns the height whose past median time a seconds based
// relative lock on an output confirmed at confirmationHeight counts from.
func MedianTimeHeight(confirmationHeight uint64) uint64 {
	if confirmationHeight == 0 {
		return 1
	}
	return confirmationHeight
}

// calcSequenceLock computes the relative lock of the transaction from the
// confirmation heights of the outputs it spends.
func (ta *TransactionAcceptor) calcSequenceLock(entries []*externalapi.UTXOEntry) *SequenceLock {
	sequenceLock := &SequenceLock{Seconds: -1, BlockHeight: -1}
	for i, input := range ta.transaction.Inputs {
		sequence := input.Sequence
		if sequence&constants.SequenceLockTimeDisabled != 0 {
			continue
		}

		inputHeight := entries[i].BlockHeight
		relativeLock := int64(sequence & constants.SequenceLockTimeMask)
		if sequence&constants.SequenceLockTimeIsSeconds != 0 {
			medianTime := ta.inputMedianTime(inputHeight)
			timeLock := medianTime + (relativeLock << constants.SequenceLockTimeGranularity) - 1
			if timeLock > sequenceLock.Seconds {
				sequenceLock.Seconds = timeLock
			}
			continue
		}

		heightLock := int64(inputHeight) + relativeLock - 1
		if heightLock > sequenceLock.BlockHeight {
			sequenceLock.BlockHeight = heightLock
		}
	}
	return sequenceLock
}

func (ta *TransactionAcceptor) inputMedianTime(inputHeight uint64) int64 {
	if inputHeight >= ta.context.Height {
		return ta.context.MedianTimePast
	}
	medianTime, ok := ta.context.InputMedianTimes[inputHeight]
	if !ok {
		panic(errors.Errorf("the past median time for an input confirmed at height %d wasn't fetched",
			inputHeight))
	}
	return medianTime
}

// checkSequenceLocks ensures the relative lock times of the transaction's
// inputs have passed.
func (ta *TransactionAcceptor) checkSequenceLocks(entries []*externalapi.UTXOEntry) error {
	if !sequenceLocksApply(ta.transaction, ta.context.Deployments, ta.context.Height) {
		return nil
	}

	sequenceLock := ta.calcSequenceLock(entries)
	if sequenceLock.Seconds >= ta.context.MedianTimePast ||
		sequenceLock.BlockHeight >= int64(ta.context.Height) {

		return errors.Wrapf(ruleerrors.ErrUnfinalizedTx, "transaction's sequence locks on inputs "+
			"not met: it may be included after height %d and median time %d, the block is at height "+
			"%d with median time %d", sequenceLock.BlockHeight, sequenceLock.Seconds,
			ta.context.Height, ta.context.MedianTimePast)
	}
	return nil
}
