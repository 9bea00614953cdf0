package chainacceptor

import (
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/blockacceptor"
	"github.com/shardledger/shardd/domain/consensus/processes/difficultymanager"
	"github.com/shardledger/shardd/domain/consensus/processes/headeracceptor"
	"github.com/shardledger/shardd/domain/consensus/processes/outputoverlay"
	"github.com/shardledger/shardd/domain/consensus/processes/pastmediantimemanager"
	"github.com/shardledger/shardd/domain/consensus/processes/transactionacceptor"
	"github.com/shardledger/shardd/domain/dagconfig"
)

// Validator holds the long-lived collaborators of block validation, and
// builds a ChainAcceptor for every candidate block.
type Validator struct {
	store           model.Store
	params          *dagconfig.Params
	scriptEvaluator model.ScriptEvaluator
	timeSource      model.TimeSource

	difficultyManager     *difficultymanager.DifficultyManager
	pastMedianTimeManager *pastmediantimemanager.PastMedianTimeManager
	headerAcceptor    *headeracceptor.HeaderAcceptor
	blockAcceptor     *blockacceptor.BlockAcceptor
}

// NewValidator instantiates a new Validator
func NewValidator(store model.Store, params *dagconfig.Params, scriptEvaluator model.ScriptEvaluator,
	shardHeaderValidator model.ShardHeaderValidator, timeSource model.TimeSource) *Validator {

	difficultyManager := difficultymanager.New(params)
	return &Validator{
		store:                 store,
		params:                params,
		scriptEvaluator:       scriptEvaluator,
		timeSource:            timeSource,
		difficultyManager:     difficultyManager,
		pastMedianTimeManager: pastmediantimemanager.New(store),
		headerAcceptor:        headeracceptor.New(params, difficultyManager),
		blockAcceptor:         blockacceptor.New(params, shardHeaderValidator),
	}
}

// Params returns the parameters of the chain the validator checks blocks of
func (v *Validator) Params() *dagconfig.Params {
	return v.params
}

// NewChainAcceptor assembles everything needed to check block as the block
// at height: the ancestor headers, and the outputs its transactions spend.
// All store reads happen here; the returned acceptor does no I/O. The block
// is borrowed and must not be mutated while the acceptor is in use.
func (v *Validator) NewChainAcceptor(level model.VerificationLevel, block *externalapi.DomainBlock,
	height uint64, medianTimePast int64, deployments model.Deployments) (*ChainAcceptor, error) {

	if height == 0 {
		return nil, errors.New("the genesis block is not validated")
	}

	parent, err := v.headerByHeight(height - 1)
	if err != nil {
		return nil, err
	}
	var retargetWindowStart *externalapi.DomainBlockHeader
	if windowStartHeight, isRetarget := v.difficultyManager.RetargetWindowStart(height); isRetarget {
		retargetWindowStart, err = v.headerByHeight(windowStartHeight)
		if err != nil {
			return nil, err
		}
	}

	acceptor := &ChainAcceptor{
		block:          block,
		headerAcceptor: v.headerAcceptor,
		headerContext: &headeracceptor.Context{
			Height:              height,
			Parent:              parent,
			RetargetWindowStart: retargetWindowStart,
			MedianTimePast:      medianTimePast,
			Now:                 v.timeSource.Now(),
			Deployments:         deployments,
		},
		blockAcceptor: v.blockAcceptor,
		blockContext: &blockacceptor.Context{
			Height:         height,
			MedianTimePast: medianTimePast,
			Deployments:    deployments,
		},
	}

	if block.Content.Type() != externalapi.ContentTypeTransactions {
		return acceptor, nil
	}

	transactions := block.Content.Transactions()
	overlay, err := outputoverlay.New(v.store, transactions, height)
	if err != nil {
		return nil, err
	}
	acceptor.blockContext.Overlay = overlay

	inputMedianTimes, err := v.inputMedianTimes(transactions, overlay, height, deployments)
	if err != nil {
		return nil, err
	}

	transactionContext := &transactionacceptor.Context{
		Params:           v.params,
		Level:            level,
		ScriptEvaluator:  v.scriptEvaluator,
		Overlay:          overlay,
		Height:           height,
		BlockTimestamp:   int64(block.Header.Timestamp),
		MedianTimePast:   medianTimePast,
		Deployments:      deployments,
		InputMedianTimes: inputMedianTimes,
	}
	acceptor.transactionAcceptors = make([]*transactionacceptor.TransactionAcceptor, len(transactions))
	for i, tx := range transactions {
		acceptor.transactionAcceptors[i] = transactionacceptor.New(transactionContext, i, tx)
	}
	return acceptor, nil
}

// inputMedianTimes fetches the past median times that seconds based relative
// lock times of the block's transactions count from.
func (v *Validator) inputMedianTimes(transactions []*externalapi.DomainTransaction,
	overlay *outputoverlay.OutputOverlay, height uint64, deployments model.Deployments) (map[uint64]int64, error) {

	medianTimes := make(map[uint64]int64)
	for i, tx := range transactions {
		for _, inputIndex := range transactionacceptor.TimeLockedInputs(tx, deployments, height) {
			entry, ok := overlay.Entry(i, &tx.Inputs[inputIndex].PreviousOutpoint)
			if !ok || entry.BlockHeight >= height {
				continue
			}
			if _, ok := medianTimes[entry.BlockHeight]; ok {
				continue
			}
			medianTime, err := v.pastMedianTimeManager.PastMedianTime(
				transactionacceptor.MedianTimeHeight(entry.BlockHeight))
			if err != nil {
				return nil, errors.Wrapf(err, "failed computing the past median time of height %d",
					entry.BlockHeight)
			}
			medianTimes[entry.BlockHeight] = medianTime
		}
	}
	return medianTimes, nil
}

func (v *Validator) headerByHeight(height uint64) (*externalapi.DomainBlockHeader, error) {
	header, found, err := v.store.HeaderByHeight(height)
	if err != nil {
		return nil, errors.Wrapf(err, "failed fetching the header at height %d", height)
	}
	if !found {
		return nil, errors.Errorf("the header at height %d is missing", height)
	}
	return header, nil
}
