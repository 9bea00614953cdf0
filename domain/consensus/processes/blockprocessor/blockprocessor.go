package blockprocessor

import (
	"sync"

	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/chainacceptor"
	"github.com/shardledger/shardd/domain/consensus/processes/pastmediantimemanager"
	"github.com/shardledger/shardd/domain/dagconfig"
	"github.com/shardledger/shardd/infrastructure/metrics"
)

// BlockStore is the committed chain state a BlockProcessor validates
// against and appends to.
type BlockStore interface {
	model.Store
	CommitBlock(block *externalapi.DomainBlock, height uint64) error
}

// BlockProcessor is responsible for processing incoming blocks: it
// validates every block against the tip of the chain and commits the
// valid ones.
type BlockProcessor struct {
	mtx sync.Mutex

	params      *dagconfig.Params
	deployments model.Deployments
	level       model.VerificationLevel

	store                 BlockStore
	validator             *chainacceptor.Validator
	pastMedianTimeManager *pastmediantimemanager.PastMedianTimeManager
	metrics               *metrics.Metrics
}

// New instantiates a new BlockProcessor. m may be nil, in which case no
// metrics are recorded.
func New(
	params *dagconfig.Params,
	level model.VerificationLevel,
	store BlockStore,
	scriptEvaluator model.ScriptEvaluator,
	shardHeaderValidator model.ShardHeaderValidator,
	timeSource model.TimeSource,
	m *metrics.Metrics) *BlockProcessor {

	return &BlockProcessor{
		params:      params,
		deployments: params,
		level:       level,

		store:                 store,
		validator:             chainacceptor.NewValidator(store, params, scriptEvaluator, shardHeaderValidator, timeSource),
		pastMedianTimeManager: pastmediantimemanager.New(store),
		metrics:               m,
	}
}
