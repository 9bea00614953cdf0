package shardheadervalidator

import (
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// ShardRangeValidator is the default model.ShardHeaderValidator. It checks
// every header names a known shard, and that the block hashes of a beacon
// block are non-zero and claimed only once. Cross-checking against the shard
// chain tips is left to validators that have access to those chains.
type ShardRangeValidator struct {
	shardCount int32
}

var _ model.ShardHeaderValidator = (*ShardRangeValidator)(nil)

// New instantiates a ShardRangeValidator for shardCount shards
func New(shardCount int32) *ShardRangeValidator {
	return &ShardRangeValidator{shardCount: shardCount}
}

// ValidateShardHeaders implements model.ShardHeaderValidator
func (v *ShardRangeValidator) ValidateShardHeaders(height uint64, shardHeaders []*externalapi.ShardHeader) error {
	seenBlocks := make(map[externalapi.DomainHash]int32)
	for i, shardHeader := range shardHeaders {
		if shardHeader.ShardID < 0 || shardHeader.ShardID >= v.shardCount {
			return errors.Errorf("shard header %d at height %d is for shard %d, "+
				"but only %d shards exist", i, height, shardHeader.ShardID, v.shardCount)
		}
		for j, blockHash := range shardHeader.BlockHashes {
			if blockHash.IsZero() {
				return errors.Errorf("block hash %d of shard %d is zero", j, shardHeader.ShardID)
			}
			if shardID, exists := seenBlocks[blockHash]; exists {
				return errors.Errorf("block %s of shard %d was already claimed by shard %d",
					blockHash, shardHeader.ShardID, shardID)
			}
			seenBlocks[blockHash] = shardHeader.ShardID
		}
	}
	return nil
}
