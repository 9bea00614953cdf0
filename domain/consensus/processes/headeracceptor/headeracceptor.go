package headeracceptor

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/difficultymanager"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/hashes"
	"github.com/shardledger/shardd/domain/dagconfig"
	"github.com/shardledger/shardd/util/difficulty"
)

// Context is the position in the chain a header is checked against. It is
// assembled before the check, so checking does no I/O.
type Context struct {
	Height uint64
	Parent *externalapi.DomainBlockHeader

	// RetargetWindowStart is the first block of the difficulty window. It
	// is only set when Height is a retarget height.
	RetargetWindowStart *externalapi.DomainBlockHeader

	MedianTimePast int64
	Now            time.Time
	Deployments    model.Deployments
}

// HeaderAcceptor validates block headers in isolation from their bodies
type HeaderAcceptor struct {
	params            *dagconfig.Params
	difficultyManager *difficultymanager.DifficultyManager
}

// New instantiates a new HeaderAcceptor
func New(params *dagconfig.Params, difficultyManager *difficultymanager.DifficultyManager) *HeaderAcceptor {
	return &HeaderAcceptor{
		params:            params,
		difficultyManager: difficultyManager,
	}
}

// Check validates header against its context. Violations are returned
// wrapped in ErrInvalidHeader.
func (ha *HeaderAcceptor) Check(header *externalapi.DomainBlockHeader, context *Context) error {
	err := ha.check(header, context)
	if err != nil {
		return ruleerrors.NewErrInvalidHeader(err)
	}
	return nil
}

func (ha *HeaderAcceptor) check(header *externalapi.DomainBlockHeader, context *Context) error {
	err := ha.checkParent(header, context)
	if err != nil {
		return err
	}
	err = ha.checkVersion(header, context)
	if err != nil {
		return err
	}
	err = ha.checkTimestamp(header, context)
	if err != nil {
		return err
	}
	err = ha.checkDifficulty(header, context)
	if err != nil {
		return err
	}
	return ha.checkProofOfWork(header)
}

func (ha *HeaderAcceptor) checkParent(header *externalapi.DomainBlockHeader, context *Context) error {
	parentHash := consensushashing.HeaderHash(context.Parent)
	if !header.PrevBlockHash.Equal(parentHash) {
		return errors.Wrapf(ruleerrors.ErrPrevBlockMismatch, "block references %s as its parent "+
			"while the block at height %d is %s", header.PrevBlockHash, context.Height-1, parentHash)
	}
	return nil
}

// versionFloors lists the deployments that reject blocks below a version,
// strictest last.
var versionFloors = []struct {
	deployment model.DeploymentID
	version    int32
}{
	{model.DeploymentHeightInCoinbase, 2},
	{model.DeploymentStrictDER, 3},
	{model.DeploymentCheckLockTimeVerify, 4},
}

func (ha *HeaderAcceptor) checkVersion(header *externalapi.DomainBlockHeader, context *Context) error {
	for _, floor := range versionFloors {
		if header.Version < floor.version && context.Deployments.IsActive(floor.deployment, context.Height) {
			return errors.Wrapf(ruleerrors.ErrBlockVersionTooOld, "block version %d is below %d, "+
				"required once %s is active", header.Version, floor.version, floor.deployment)
		}
	}
	return nil
}

func (ha *HeaderAcceptor) checkTimestamp(header *externalapi.DomainBlockHeader, context *Context) error {
	timestamp := int64(header.Timestamp)
	if timestamp <= context.MedianTimePast {
		return errors.Wrapf(ruleerrors.ErrTimeTooOld, "block timestamp of %s is not after "+
			"the median time past of %s", time.Unix(timestamp, 0), time.Unix(context.MedianTimePast, 0))
	}

	maxTimestamp := context.Now.Add(ha.params.MaxTimeOffset).Unix()
	if timestamp > maxTimestamp {
		return errors.Wrapf(ruleerrors.ErrTimeTooNew, "block timestamp of %s is too far in the "+
			"future, the maximum is %s", time.Unix(timestamp, 0), time.Unix(maxTimestamp, 0))
	}
	return nil
}

func (ha *HeaderAcceptor) checkDifficulty(header *externalapi.DomainBlockHeader, context *Context) error {
	expectedBits, err := ha.difficultyManager.RequiredDifficulty(context.Height, context.Parent, context.RetargetWindowStart)
	if err != nil {
		return err
	}
	if header.Bits != expectedBits {
		return errors.Wrapf(ruleerrors.ErrUnexpectedDifficulty, "block difficulty of %08x is not the "+
			"expected value of %08x", header.Bits, expectedBits)
	}
	return nil
}

// checkProofOfWork ensures the block header bits which indicate the target
// difficulty is in min/max range and that the block hash is less than the
// target difficulty as claimed.
func (ha *HeaderAcceptor) checkProofOfWork(header *externalapi.DomainBlockHeader) error {
	// The target difficulty must be larger than zero.
	target := difficulty.CompactToBig(header.Bits)
	if target.Sign() <= 0 {
		return errors.Wrapf(ruleerrors.ErrNegativeTarget, "block target difficulty of %064x is too low", target)
	}

	// The target difficulty must be less than the maximum allowed.
	if target.Cmp(ha.params.PowLimit) > 0 {
		return errors.Wrapf(ruleerrors.ErrTargetTooHigh, "block target difficulty of %064x is "+
			"higher than max of %064x", target, ha.params.PowLimit)
	}

	if ha.params.SkipProofOfWork {
		return nil
	}

	// The block hash must be less than the claimed target.
	hashNum := hashes.ToBig(consensushashing.HeaderHash(header))
	if hashNum.Cmp(target) > 0 {
		return errors.Wrapf(ruleerrors.ErrHighHash, "block hash of %064x is higher than "+
			"expected max of %064x", hashNum, target)
	}
	return nil
}
