package blockacceptor

import (
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/outputoverlay"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/constants"
	"github.com/shardledger/shardd/domain/consensus/utils/merkle"
	"github.com/shardledger/shardd/domain/consensus/utils/serialization"
	"github.com/shardledger/shardd/domain/dagconfig"
)

// Context is the chain position a block body is checked against.
type Context struct {
	Height         uint64
	MedianTimePast int64
	Deployments    model.Deployments

	// Overlay resolves the outputs the block spends. It is nil for blocks
	// carrying shard headers.
	Overlay *outputoverlay.OutputOverlay
}

// BlockAcceptor validates the block-level rules that need the full body
type BlockAcceptor struct {
	params               *dagconfig.Params
	shardHeaderValidator model.ShardHeaderValidator
}

// New instantiates a new BlockAcceptor
func New(params *dagconfig.Params, shardHeaderValidator model.ShardHeaderValidator) *BlockAcceptor {
	return &BlockAcceptor{
		params:               params,
		shardHeaderValidator: shardHeaderValidator,
	}
}

// Check validates block against its context. Violations are returned
// wrapped in ErrInvalidBlock.
func (ba *BlockAcceptor) Check(block *externalapi.DomainBlock, context *Context) error {
	err := ba.check(block, context)
	if err != nil {
		return ruleerrors.NewErrInvalidBlock(err)
	}
	return nil
}

func (ba *BlockAcceptor) check(block *externalapi.DomainBlock, context *Context) error {
	err := ba.checkContentType(block)
	if err != nil {
		return err
	}

	err = ba.checkMerkleRoot(block)
	if err != nil {
		return err
	}

	err = ba.checkBlockSize(block)
	if err != nil {
		return err
	}

	switch block.Content.Type() {
	case externalapi.ContentTypeTransactions:
		return ba.checkTransactions(block, context)
	case externalapi.ContentTypeShardHeaders:
		return ba.checkShardHeaders(block.Content.ShardHeaders(), context)
	}
	panic(errors.Wrapf(externalapi.ErrMalformed, "unknown content type %d", block.Content.Type()))
}

// checkContentType rejects blocks whose content variant doesn't belong on
// this chain. It runs first, so a mismatch never reaches variant specific
// checks.
func (ba *BlockAcceptor) checkContentType(block *externalapi.DomainBlock) error {
	if block.Content.Type() != ba.params.ContentType {
		return errors.Wrapf(ruleerrors.ErrWrongContentType, "%s chain blocks must carry %s, "+
			"got %s", ba.params.Name, ba.params.ContentType, block.Content.Type())
	}
	return nil
}

func (ba *BlockAcceptor) checkMerkleRoot(block *externalapi.DomainBlock) error {
	calculatedMerkleRoot := merkle.CalculateHashMerkleRoot(block.Content)
	if !block.Header.MerkleRoot.Equal(calculatedMerkleRoot) {
		return errors.Wrapf(ruleerrors.ErrBadMerkleRoot, "block merkle root is invalid - block "+
			"header indicates %s, but calculated value is %s",
			block.Header.MerkleRoot, calculatedMerkleRoot)
	}
	return nil
}

func (ba *BlockAcceptor) checkBlockSize(block *externalapi.DomainBlock) error {
	baseSize := uint64(serialization.BlockSerializeSize(block, false))
	if baseSize > ba.params.MaxBlockBaseSize {
		return errors.Wrapf(ruleerrors.ErrBlockTooBig, "serialized block is too big - got "+
			"%d, max %d", baseSize, ba.params.MaxBlockBaseSize)
	}

	totalSize := uint64(serialization.BlockSerializeSize(block, true))
	weight := baseSize*(constants.WitnessScaleFactor-1) + totalSize
	if weight > ba.params.MaxBlockWeight {
		return errors.Wrapf(ruleerrors.ErrBlockWeightTooHigh, "block weight of %d is higher "+
			"than the max of %d", weight, ba.params.MaxBlockWeight)
	}
	return nil
}
