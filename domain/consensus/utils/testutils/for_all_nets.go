package testutils

import (
	"testing"

	"github.com/shardledger/shardd/domain/dagconfig"
)

// ForAllNets runs the passed testFunc with all available shard networks.
// Each run gets its own copy of the parameters, so testFunc may modify them.
func ForAllNets(t *testing.T, testFunc func(*testing.T, *dagconfig.Params)) {
	allParams := []dagconfig.Params{
		dagconfig.MainnetParams,
		dagconfig.TestnetParams,
		dagconfig.RegressionNetParams,
	}

	for _, params := range allParams {
		params := params
		t.Run(params.Name, func(t *testing.T) {
			t.Parallel()
			testFunc(t, &params)
		})
	}
}
