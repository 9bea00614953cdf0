package testutils

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
)

// MemoryStore is an in-memory model.Store for tests. It counts every read,
// which lets tests assert that validation does no I/O after construction.
type MemoryStore struct {
	mtx sync.RWMutex

	headers       []*externalapi.DomainBlockHeader
	heightsByHash map[externalapi.DomainHash]uint64
	outputs       map[externalapi.DomainOutpoint]*externalapi.DomainTransactionOutput
	metas         map[externalapi.DomainOutpoint]*externalapi.OutputMeta

	reads int
}

var _ model.Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store whose chain consists of genesis alone.
// The genesis outputs are not spendable.
func NewMemoryStore(genesis *externalapi.DomainBlock) *MemoryStore {
	store := &MemoryStore{
		heightsByHash: make(map[externalapi.DomainHash]uint64),
		outputs:       make(map[externalapi.DomainOutpoint]*externalapi.DomainTransactionOutput),
		metas:         make(map[externalapi.DomainOutpoint]*externalapi.OutputMeta),
	}
	store.AppendHeader(genesis.Header)
	return store
}

// AppendHeader adds header on top of the best block and returns its hash.
func (ms *MemoryStore) AppendHeader(header *externalapi.DomainBlockHeader) *externalapi.DomainHash {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	blockHash := consensushashing.HeaderHash(header)
	ms.heightsByHash[*blockHash] = uint64(len(ms.headers))
	ms.headers = append(ms.headers, header)
	return blockHash
}

// AddOutput adds an unspent output confirmed at the given height.
func (ms *MemoryStore) AddOutput(outpoint *externalapi.DomainOutpoint, output *externalapi.DomainTransactionOutput,
	blockHeight uint64, isCoinbase bool) {

	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	ms.outputs[*outpoint] = output
	ms.metas[*outpoint] = &externalapi.OutputMeta{BlockHeight: blockHeight, IsCoinbase: isCoinbase}
}

// MarkSpent flags a stored output as spent.
func (ms *MemoryStore) MarkSpent(outpoint *externalapi.DomainOutpoint) error {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	meta, ok := ms.metas[*outpoint]
	if !ok {
		return errors.Errorf("output %s doesn't exist", outpoint)
	}
	meta.IsSpent = true
	return nil
}

// Reads returns the number of store reads so far.
func (ms *MemoryStore) Reads() int {
	ms.mtx.RLock()
	defer ms.mtx.RUnlock()

	return ms.reads
}

// Output implements model.Store.
func (ms *MemoryStore) Output(outpoint *externalapi.DomainOutpoint) (*externalapi.DomainTransactionOutput, bool, error) {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	ms.reads++
	output, ok := ms.outputs[*outpoint]
	return output, ok, nil
}

// OutputMeta implements model.Store.
func (ms *MemoryStore) OutputMeta(outpoint *externalapi.DomainOutpoint) (*externalapi.OutputMeta, bool, error) {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	ms.reads++
	meta, ok := ms.metas[*outpoint]
	if !ok {
		return nil, false, nil
	}
	metaCopy := *meta
	return &metaCopy, true, nil
}

// HeaderByHash implements model.Store.
func (ms *MemoryStore) HeaderByHash(blockHash *externalapi.DomainHash) (*externalapi.DomainBlockHeader, bool, error) {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	ms.reads++
	height, ok := ms.heightsByHash[*blockHash]
	if !ok {
		return nil, false, nil
	}
	return ms.headers[height], true, nil
}

// HeaderByHeight implements model.Store.
func (ms *MemoryStore) HeaderByHeight(height uint64) (*externalapi.DomainBlockHeader, bool, error) {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	ms.reads++
	if height >= uint64(len(ms.headers)) {
		return nil, false, nil
	}
	return ms.headers[height], true, nil
}

// BestBlock implements model.Store.
func (ms *MemoryStore) BestBlock() (*externalapi.DomainHash, uint64, error) {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	ms.reads++
	height := uint64(len(ms.headers) - 1)
	return consensushashing.HeaderHash(ms.headers[height]), height, nil
}
