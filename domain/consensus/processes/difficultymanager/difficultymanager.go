package difficultymanager

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/dagconfig"
	"github.com/shardledger/shardd/util/difficulty"
)

// DifficultyManager resolves the bits a block at some height must declare
type DifficultyManager struct {
	powLimit                 *big.Int
	powLimitBits             uint32
	noRetargeting            bool
	targetTimespan           int64
	retargetInterval         uint64
	retargetAdjustmentFactor int64
}

// New instantiates a new DifficultyManager
func New(params *dagconfig.Params) *DifficultyManager {
	return &DifficultyManager{
		powLimit:                 params.PowLimit,
		powLimitBits:             params.PowLimitBits,
		noRetargeting:            params.NoRetargeting,
		targetTimespan:           int64(params.TargetTimespan.Seconds()),
		retargetInterval:         params.RetargetInterval(),
		retargetAdjustmentFactor: params.RetargetAdjustmentFactor,
	}
}

// RetargetWindowStart returns the height of the first block of the window
// that the difficulty of a block at height is computed from. The second
// return value is false when height doesn't retarget.
func (dm *DifficultyManager) RetargetWindowStart(height uint64) (uint64, bool) {
	if dm.noRetargeting || height == 0 || height%dm.retargetInterval != 0 {
		return 0, false
	}
	return height - dm.retargetInterval, true
}

// RequiredDifficulty returns the bits a block at height must declare, given
// its parent and, on retarget heights, the first block of the retarget
// window.
func (dm *DifficultyManager) RequiredDifficulty(height uint64, parent *externalapi.DomainBlockHeader,
	windowStart *externalapi.DomainBlockHeader) (uint32, error) {

	if height == 0 {
		return dm.powLimitBits, nil
	}
	if _, isRetarget := dm.RetargetWindowStart(height); !isRetarget {
		return parent.Bits, nil
	}
	if windowStart == nil {
		return 0, errors.Errorf("height %d retargets but the window start is missing", height)
	}

	// Limit the amount of adjustment that can occur to the previous
	// difficulty.
	actualTimespan := int64(parent.Timestamp) - int64(windowStart.Timestamp)
	adjustedTimespan := actualTimespan
	minTimespan := dm.targetTimespan / dm.retargetAdjustmentFactor
	maxTimespan := dm.targetTimespan * dm.retargetAdjustmentFactor
	if actualTimespan < minTimespan {
		adjustedTimespan = minTimespan
	} else if actualTimespan > maxTimespan {
		adjustedTimespan = maxTimespan
	}

	// Calculate new target difficulty as:
	//  currentDifficulty * (adjustedTimespan / targetTimespan)
	// The result uses integer division which means it will be slightly
	// rounded down.
	oldTarget := difficulty.CompactToBig(parent.Bits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(adjustedTimespan))
	newTarget.Div(newTarget, big.NewInt(dm.targetTimespan))

	if newTarget.Cmp(dm.powLimit) > 0 {
		newTarget.Set(dm.powLimit)
	}

	newTargetBits := difficulty.BigToCompact(newTarget)
	log.Debugf("Difficulty retarget at block height %d: old target %08x, new target %08x, "+
		"actual timespan %ds, adjusted timespan %ds", height, parent.Bits, newTargetBits,
		actualTimespan, adjustedTimespan)
	return newTargetBits, nil
}
