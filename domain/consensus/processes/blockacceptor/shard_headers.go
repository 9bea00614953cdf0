package blockacceptor

import (
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
)

func (ba *BlockAcceptor) checkShardHeaders(shardHeaders []*externalapi.ShardHeader, context *Context) error {
	seenShards := make(map[int32]struct{}, len(shardHeaders))
	for i, shardHeader := range shardHeaders {
		if _, exists := seenShards[shardHeader.ShardID]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateShardHeader, "shard header %d is the "+
				"second header of shard %d", i, shardHeader.ShardID)
		}
		seenShards[shardHeader.ShardID] = struct{}{}

		if len(shardHeader.BlockHashes) == 0 {
			return errors.Wrapf(ruleerrors.ErrEmptyShardHeader, "shard header %d of shard %d "+
				"has no block hashes", i, shardHeader.ShardID)
		}
	}

	err := ba.shardHeaderValidator.ValidateShardHeaders(context.Height, shardHeaders)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrInvalidShardHeaders, "%s", err)
	}
	return nil
}
