package model

import (
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// ShardHeaderValidator checks the shard headers of a beacon block against
// the shard chains they claim to extend.
type ShardHeaderValidator interface {
	ValidateShardHeaders(height uint64, shardHeaders []*externalapi.ShardHeader) error
}
