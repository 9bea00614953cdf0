// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"math"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/constants"
	"github.com/shardledger/shardd/util/difficulty"
)

// These variables are the chain proof-of-work limit parameters for each default
// network.
var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowLimit is the highest proof of work value a block can
	// have for the main network. It is the value 2^224 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	// regressionPowLimit is the highest proof of work value a block
	// can have for the regression test network. It is the value 2^255 - 1.
	regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

const (
	targetTimespan           = time.Hour * 24 * 14
	targetTimePerBlock       = time.Minute * 10
	retargetAdjustmentFactor = 4
	coinbaseMaturity         = 100
	subsidyReductionInterval = 210_000
	baseSubsidy              = 50 * constants.SatoshiPerCoin
	maxTimeOffset            = 2 * time.Hour
)

// neverActive is the activation height of a deployment that never
// activates.
const neverActive = math.MaxUint64

// Params defines a network by its parameters. These parameters may be
// used by applications to differentiate networks as well as addresses
// and keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net is the magic number that prefixes every record of a block file
	// of this network.
	Net uint32

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *externalapi.DomainBlock

	// GenesisHash is the starting block hash.
	GenesisHash *externalapi.DomainHash

	// ContentType is the body variant every block of this chain carries:
	// Transactions for a shard chain and ShardHeaders for the beacon chain.
	ContentType externalapi.ContentType

	// ShardCount is the number of shards a beacon chain aggregates. It is
	// zero for shard chains.
	ShardCount int32

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// SkipProofOfWork disables the hash-below-target check. It is only
	// used by test networks whose blocks are not mined.
	SkipProofOfWork bool

	// NoRetargeting defines whether the network has difficulty
	// retargeting disabled.
	NoRetargeting bool

	// TargetTimespan is the desired amount of time that should elapse
	// before the block difficulty requirement is examined to determine how
	// it should be changed in order to maintain the desired block
	// generation rate.
	TargetTimespan time.Duration

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// RetargetAdjustmentFactor is the adjustment factor used to limit
	// the minimum and maximum amount of adjustment that can occur between
	// difficulty retargets.
	RetargetAdjustmentFactor int64

	// MaxTimeOffset bounds how far ahead of the local clock a block
	// timestamp may be.
	MaxTimeOffset time.Duration

	// CoinbaseMaturity is the number of blocks required before newly mined
	// coins (coinbase transactions) can be spent.
	CoinbaseMaturity uint64

	// BaseSubsidy is the reward of a block before any halving.
	BaseSubsidy uint64

	// SubsidyReductionInterval is the interval of blocks before the subsidy
	// is reduced.
	SubsidyReductionInterval uint64

	// MaxBlockBaseSize, MaxBlockWeight and MaxBlockSigOpsCost bound the
	// size, weight and signature operation cost of a block.
	MaxBlockBaseSize   uint64
	MaxBlockWeight     uint64
	MaxBlockSigOpsCost uint64

	// DeploymentHeights maps every deployment to the height it activates at.
	DeploymentHeights [model.DefinedDeployments]uint64
}

// IsActive returns whether the deployment is active at height. Params
// implements model.Deployments with height-activated deployments.
func (p *Params) IsActive(id model.DeploymentID, height uint64) bool {
	if id >= model.DefinedDeployments {
		return false
	}
	return height >= p.DeploymentHeights[id]
}

// CalcBlockSubsidy returns the subsidy amount a block at the provided height
// should have. This is mainly used for determining how much the coinbase for
// newly generated blocks awards as well as validating the coinbase for blocks
// has the expected value.
//
// The subsidy is halved every SubsidyReductionInterval blocks.
func (p *Params) CalcBlockSubsidy(height uint64) uint64 {
	if p.SubsidyReductionInterval == 0 {
		return p.BaseSubsidy
	}

	halvings := height / p.SubsidyReductionInterval
	if halvings >= 64 {
		return 0
	}
	return p.BaseSubsidy >> halvings
}

// RetargetInterval returns the number of blocks between difficulty
// adjustments.
func (p *Params) RetargetInterval() uint64 {
	return uint64(p.TargetTimespan / p.TargetTimePerBlock)
}

// MainnetParams defines the network parameters for the main shard network.
var MainnetParams = Params{
	Name:                     "mainnet",
	Net:                      0xd9b4bef9,
	GenesisBlock:             genesisBlock,
	GenesisHash:              genesisHash,
	ContentType:              externalapi.ContentTypeTransactions,
	PowLimit:                 mainPowLimit,
	PowLimitBits:             0x1d00ffff,
	TargetTimespan:           targetTimespan,
	TargetTimePerBlock:       targetTimePerBlock,
	RetargetAdjustmentFactor: retargetAdjustmentFactor,
	MaxTimeOffset:            maxTimeOffset,
	CoinbaseMaturity:         coinbaseMaturity,
	BaseSubsidy:              baseSubsidy,
	SubsidyReductionInterval: subsidyReductionInterval,
	MaxBlockBaseSize:         constants.MaxBlockBaseSize,
	MaxBlockWeight:           constants.MaxBlockWeight,
	MaxBlockSigOpsCost:       constants.MaxBlockSigOpsCost,
	DeploymentHeights: [model.DefinedDeployments]uint64{
		model.DeploymentHeightInCoinbase:    227931,
		model.DeploymentStrictDER:           363725,
		model.DeploymentCheckLockTimeVerify: 388381,
		model.DeploymentMedianTimeLocks:     419328,
		model.DeploymentSegwit:              481824,
		model.DeploymentSequenceLocks:      419328,
	},
}

// TestnetParams defines the network parameters for the test shard network.
var TestnetParams = Params{
	Name:                     "testnet",
	Net:                      0x0709110b,
	GenesisBlock:             testnetGenesisBlock,
	GenesisHash:              testnetGenesisHash,
	ContentType:              externalapi.ContentTypeTransactions,
	PowLimit:                 mainPowLimit,
	PowLimitBits:             0x1d00ffff,
	TargetTimespan:           targetTimespan,
	TargetTimePerBlock:       targetTimePerBlock,
	RetargetAdjustmentFactor: retargetAdjustmentFactor,
	MaxTimeOffset:            maxTimeOffset,
	CoinbaseMaturity:         coinbaseMaturity,
	BaseSubsidy:              baseSubsidy,
	SubsidyReductionInterval: subsidyReductionInterval,
	MaxBlockBaseSize:         constants.MaxBlockBaseSize,
	MaxBlockWeight:           constants.MaxBlockWeight,
	MaxBlockSigOpsCost:       constants.MaxBlockSigOpsCost,
	DeploymentHeights: [model.DefinedDeployments]uint64{
		model.DeploymentHeightInCoinbase:    21111,
		model.DeploymentStrictDER:           330776,
		model.DeploymentCheckLockTimeVerify: 581885,
		model.DeploymentMedianTimeLocks:     770112,
		model.DeploymentSegwit:              834624,
		model.DeploymentSequenceLocks:      770112,
	},
}

// RegressionNetParams defines the network parameters for the regression test
// shard network. Every deployment is active from the first block and blocks
// don't need to be mined.
var RegressionNetParams = Params{
	Name:                     "regtest",
	Net:                      0xdab5bffa,
	GenesisBlock:             regressionGenesisBlock,
	GenesisHash:              regressionGenesisHash,
	ContentType:              externalapi.ContentTypeTransactions,
	PowLimit:                 regressionPowLimit,
	PowLimitBits:             difficulty.BigToCompact(regressionPowLimit),
	SkipProofOfWork:          true,
	NoRetargeting:            true,
	TargetTimespan:           targetTimespan,
	TargetTimePerBlock:       targetTimePerBlock,
	RetargetAdjustmentFactor: retargetAdjustmentFactor,
	MaxTimeOffset:            maxTimeOffset,
	CoinbaseMaturity:         coinbaseMaturity,
	BaseSubsidy:              baseSubsidy,
	SubsidyReductionInterval: 150,
	MaxBlockBaseSize:         constants.MaxBlockBaseSize,
	MaxBlockWeight:           constants.MaxBlockWeight,
	MaxBlockSigOpsCost:       constants.MaxBlockSigOpsCost,
	DeploymentHeights: [model.DefinedDeployments]uint64{
		model.DeploymentHeightInCoinbase:    1,
		model.DeploymentStrictDER:           1,
		model.DeploymentCheckLockTimeVerify: 1,
		model.DeploymentMedianTimeLocks:     1,
		model.DeploymentSegwit:              1,
		model.DeploymentSequenceLocks:      1,
	},
}

// BeaconParams defines the network parameters for the beacon chain, whose
// blocks aggregate the headers of shardCount shard chains.
var BeaconParams = Params{
	Name:                     "beacon",
	Net:                      0x5a0eacb3,
	GenesisBlock:             beaconGenesisBlock,
	GenesisHash:              beaconGenesisHash,
	ContentType:              externalapi.ContentTypeShardHeaders,
	ShardCount:               4,
	PowLimit:                 regressionPowLimit,
	PowLimitBits:             difficulty.BigToCompact(regressionPowLimit),
	NoRetargeting:            true,
	TargetTimespan:           targetTimespan,
	TargetTimePerBlock:       targetTimePerBlock,
	RetargetAdjustmentFactor: retargetAdjustmentFactor,
	MaxTimeOffset:            maxTimeOffset,
	CoinbaseMaturity:         coinbaseMaturity,
	SubsidyReductionInterval: subsidyReductionInterval,
	MaxBlockBaseSize:         constants.MaxBlockBaseSize,
	MaxBlockWeight:           constants.MaxBlockWeight,
	MaxBlockSigOpsCost:       constants.MaxBlockSigOpsCost,
	DeploymentHeights: [model.DefinedDeployments]uint64{
		model.DeploymentHeightInCoinbase:    neverActive,
		model.DeploymentStrictDER:           neverActive,
		model.DeploymentCheckLockTimeVerify: neverActive,
		model.DeploymentMedianTimeLocks:     neverActive,
		model.DeploymentSegwit:              neverActive,
		model.DeploymentSequenceLocks:      neverActive,
	},
}

var (
	// ErrDuplicateNet describes an error where the parameters for a network
	// could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate network")

	// ErrUnknownNet describes an error where no network is registered under
	// the requested magic.
	ErrUnknownNet = errors.New("unknown network")
)

var registeredNets = map[uint32]*Params{}

// Register registers the network parameters for a network. This may error
// with ErrDuplicateNet if the network is already registered (either due to a
// previous Register call, or the network being one of the default networks).
func Register(params *Params) error {
	if _, ok := registeredNets[params.Net]; ok {
		return errors.Wrapf(ErrDuplicateNet, "network %s (%08x)", params.Name, params.Net)
	}
	registeredNets[params.Net] = params
	return nil
}

// ParamsByNet returns the registered parameters of the network with the
// given magic.
func ParamsByNet(net uint32) (*Params, error) {
	params, ok := registeredNets[net]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNet, "magic %08x", net)
	}
	return params, nil
}

func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&TestnetParams)
	mustRegister(&RegressionNetParams)
	mustRegister(&BeaconParams)
}
