package shardheadervalidator

import (
	"testing"

	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

func TestValidateShardHeaders(t *testing.T) {
	validator := New(4)

	tests := []struct {
		name         string
		shardHeaders []*externalapi.ShardHeader
		expectErr    bool
	}{
		{
			name:         "no headers",
			shardHeaders: nil,
		},
		{
			name: "known shards",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: 0, BlockHashes: []externalapi.DomainHash{{1}}},
				{Version: 1, ShardID: 3, BlockHashes: []externalapi.DomainHash{{2}, {3}}},
			},
		},
		{
			name: "unknown shard",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: 4, BlockHashes: []externalapi.DomainHash{{1}}},
			},
			expectErr: true,
		},
		{
			name: "negative shard",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: -1, BlockHashes: []externalapi.DomainHash{{1}}},
			},
			expectErr: true,
		},
		{
			name: "zero block hash",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: 2, BlockHashes: []externalapi.DomainHash{{1}, {}}},
			},
			expectErr: true,
		},
		{
			name: "block repeated within a shard",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: 1, BlockHashes: []externalapi.DomainHash{{5}, {5}}},
			},
			expectErr: true,
		},
		{
			name: "block claimed by two shards",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: 0, BlockHashes: []externalapi.DomainHash{{5}}},
				{Version: 1, ShardID: 1, BlockHashes: []externalapi.DomainHash{{6}, {5}}},
			},
			expectErr: true,
		},
	}

	for _, test := range tests {
		err := validator.ValidateShardHeaders(7, test.shardHeaders)
		if (err != nil) != test.expectErr {
			t.Errorf("TestValidateShardHeaders: %s: expectErr %t, got %v", test.name, test.expectErr, err)
		}
	}
}
