package pastmediantimemanager

import (
	"testing"

	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/testutils"
	"github.com/shardledger/shardd/domain/dagconfig"
)

func TestPastMedianTime(t *testing.T) {
	params := &dagconfig.RegressionNetParams
	store := testutils.NewMemoryStore(params.GenesisBlock)
	genesisTime := int64(params.GenesisBlock.Header.Timestamp)

	// Every block is 100 seconds after its parent, except that block 5
	// claims to be far in the past.
	for height := int64(1); height < 30; height++ {
		timestamp := genesisTime + height*100
		if height == 5 {
			timestamp = genesisTime - 1000
		}
		store.AppendHeader(&externalapi.DomainBlockHeader{Timestamp: uint32(timestamp)})
	}

	tests := []struct {
		height   uint64
		expected int64
	}{
		{height: 1, expected: genesisTime},
		{height: 2, expected: genesisTime + 100},
		{height: 7, expected: genesisTime + 200},
		{height: 11, expected: genesisTime + 400},
		{height: 20, expected: genesisTime + 1400},
		{height: 30, expected: genesisTime + 2400},
	}

	pmtm := New(store)
	for _, test := range tests {
		pastMedianTime, err := pmtm.PastMedianTime(test.height)
		if err != nil {
			t.Fatalf("PastMedianTime: %+v", err)
		}
		if pastMedianTime != test.expected {
			t.Errorf("TestPastMedianTime: height %d: expected %d seconds since genesis, got %d",
				test.height, test.expected-genesisTime, pastMedianTime-genesisTime)
		}
	}

	if _, err := pmtm.PastMedianTime(31); err == nil {
		t.Fatalf("TestPastMedianTime: expected an error past the best block")
	}
}
