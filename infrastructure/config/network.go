package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/dagconfig"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet            bool   `long:"testnet" description:"Use the test network"`
	Regtest            bool   `long:"regtest" description:"Use the regression test network"`
	Beacon             bool   `long:"beacon" description:"Use the beacon chain"`
	OverrideParamsFile string `long:"override-params-file" description:"Overrides network params (allowed only on regtest)"`

	ActiveNetParams *dagconfig.Params
}

type overrideParamsConfig struct {
	CoinbaseMaturity         *uint64 `json:"coinbaseMaturity"`
	SubsidyReductionInterval *uint64 `json:"subsidyReductionInterval"`
	MaxBlockWeight           *uint64 `json:"maxBlockWeight"`
	MaxBlockSigOpsCost       *uint64 `json:"maxBlockSigOpsCost"`
	SkipProofOfWork          *bool   `json:"skipProofOfWork"`
	NoRetargeting            *bool   `json:"noRetargeting"`
}

// ResolveNetwork parses the network command line argument and sets NetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default value is main-net.
	activeNetParams := dagconfig.MainnetParams
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		activeNetParams = dagconfig.TestnetParams
	}
	if networkFlags.Regtest {
		numNets++
		activeNetParams = dagconfig.RegressionNetParams
	}
	if networkFlags.Beacon {
		numNets++
		activeNetParams = dagconfig.BeaconParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, regtest, beacon) cannot be used " +
			"together. Please choose only one network"
		err := errors.Errorf(message)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return err
	}

	// The selected params are copied so that overrides never leak into the
	// package-level definitions.
	networkFlags.ActiveNetParams = &activeNetParams

	err := networkFlags.overrideParams()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return err
	}

	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideParams() error {
	if networkFlags.OverrideParamsFile == "" {
		return nil
	}

	if !networkFlags.Regtest {
		return errors.Errorf("override-params-file is allowed only when using regtest")
	}

	overrideParamsFile, err := os.Open(networkFlags.OverrideParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideParamsFile.Close()

	decoder := json.NewDecoder(overrideParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "failed parsing %s", networkFlags.OverrideParamsFile)
	}

	params := networkFlags.ActiveNetParams
	if config.CoinbaseMaturity != nil {
		params.CoinbaseMaturity = *config.CoinbaseMaturity
	}

	if config.SubsidyReductionInterval != nil {
		params.SubsidyReductionInterval = *config.SubsidyReductionInterval
	}

	if config.MaxBlockWeight != nil {
		params.MaxBlockWeight = *config.MaxBlockWeight
	}

	if config.MaxBlockSigOpsCost != nil {
		params.MaxBlockSigOpsCost = *config.MaxBlockSigOpsCost
	}

	if config.SkipProofOfWork != nil {
		params.SkipProofOfWork = *config.SkipProofOfWork
	}

	if config.NoRetargeting != nil {
		params.NoRetargeting = *config.NoRetargeting
	}

	return nil
}
