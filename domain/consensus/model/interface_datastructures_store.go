package model

import (
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// Store is the read side of committed chain state that validation
// consumes. Every lookup reports absence through its boolean result and
// reserves the error for storage failures.
type Store interface {
	Output(outpoint *externalapi.DomainOutpoint) (*externalapi.DomainTransactionOutput, bool, error)
	OutputMeta(outpoint *externalapi.DomainOutpoint) (*externalapi.OutputMeta, bool, error)
	HeaderByHash(blockHash *externalapi.DomainHash) (*externalapi.DomainBlockHeader, bool, error)
	HeaderByHeight(height uint64) (*externalapi.DomainBlockHeader, bool, error)
	BestBlock() (blockHash *externalapi.DomainHash, height uint64, err error)
}
