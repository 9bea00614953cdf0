package blockprocessor

import (
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/blockprocessor/blocklogger"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/infrastructure/logger"
)

// ValidateAndInsertBlock validates the given block as the next block of the
// chain and, if valid, commits it. It returns the height the block was
// committed at. Rule violations are returned as errors for which
// ruleerrors.IsRuleError is true.
func (bp *BlockProcessor) ValidateAndInsertBlock(block *externalapi.DomainBlock) (uint64, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateAndInsertBlock")
	defer onEnd()

	bp.mtx.Lock()
	defer bp.mtx.Unlock()

	blockHash := consensushashing.HeaderHash(block.Header)
	height, err := bp.nextHeight(block, blockHash)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	err = bp.validateBlock(block, height)
	checkDuration := time.Since(start)
	if err != nil {
		if ruleerrors.IsRuleError(err) {
			bp.markRejected(err, checkDuration)
			log.Infof("Rejected block %s at height %d: %s", blockHash, height, err)
			log.Debugf("Rejected block %s: %s", blockHash, logger.NewLogClosure(func() string {
				return spew.Sdump(block)
			}))
		}
		return 0, err
	}

	err = bp.store.CommitBlock(block, height)
	if err != nil {
		return 0, err
	}
	if bp.metrics != nil {
		bp.metrics.MarkAccepted(block.Content.Type().String(), transactionCount(block), checkDuration)
	}
	blocklogger.LogBlock(block, height)
	return height, nil
}

// nextHeight returns the height block would have as the child of the tip.
func (bp *BlockProcessor) nextHeight(block *externalapi.DomainBlock, blockHash *externalapi.DomainHash) (uint64, error) {
	tipHash, tipHeight, err := bp.store.BestBlock()
	if err != nil {
		return 0, err
	}

	_, exists, err := bp.store.HeaderByHash(blockHash)
	if err != nil {
		return 0, err
	}
	if exists {
		err = errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s is already in the chain", blockHash)
		bp.markRejected(err, 0)
		return 0, err
	}
	if block.Header.PrevBlockHash != *tipHash {
		err = errors.Wrapf(ruleerrors.ErrOrphanBlock, "the parent %s of block %s isn't the tip %s",
			block.Header.PrevBlockHash, blockHash, tipHash)
		bp.markRejected(err, 0)
		return 0, err
	}
	return tipHeight + 1, nil
}

func (bp *BlockProcessor) validateBlock(block *externalapi.DomainBlock, height uint64) error {
	medianTimePast, err := bp.pastMedianTimeManager.PastMedianTime(height)
	if err != nil {
		return err
	}
	acceptor, err := bp.validator.NewChainAcceptor(bp.level, block, height, medianTimePast, bp.deployments)
	if err != nil {
		return err
	}
	return acceptor.Check()
}

func (bp *BlockProcessor) markRejected(err error, checkDuration time.Duration) {
	if bp.metrics != nil {
		bp.metrics.MarkRejected(ruleerrors.Stage(err), checkDuration)
	}
}

func transactionCount(block *externalapi.DomainBlock) int {
	if block.Content.Type() != externalapi.ContentTypeTransactions {
		return 0
	}
	return len(block.Content.Transactions())
}
