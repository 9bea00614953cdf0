package chainstore

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/multiset"
	"github.com/shardledger/shardd/domain/consensus/utils/serialization"
	"github.com/shardledger/shardd/domain/consensus/utils/utxo"
	"github.com/shardledger/shardd/domain/consensus/utils/utxolrucache"
	"github.com/shardledger/shardd/infrastructure/db/database/ldb"
)

const outputCacheSize = 100_000

// ChainStore is the committed state of a single chain, persisted in
// leveldb: the headers of the best chain by height and hash, every output
// ever created with its confirmation metadata, and a multiset commitment
// to the unspent outputs.
//
// Reads are safe for concurrent use with each other and with CommitBlock.
type ChainStore struct {
	mtx sync.RWMutex
	db  *ldb.LevelDB

	tipHash   *externalapi.DomainHash
	tipHeight uint64
	utxoSet   *multiset.Multiset

	outputCache *utxolrucache.LRUCache
}

var _ model.Store = (*ChainStore)(nil)

// Open opens the chain store under path, creating it with genesis as its
// only block if it doesn't exist yet. The outputs of genesis are not
// spendable.
func Open(path string, genesis *externalapi.DomainBlock) (*ChainStore, error) {
	db, err := ldb.NewLevelDB(path)
	if err != nil {
		return nil, err
	}
	cs := &ChainStore{
		db:          db,
		outputCache: utxolrucache.New(outputCacheSize),
	}

	tipBytes, found, err := db.Get(tipKey)
	if err != nil {
		return nil, err
	}
	if !found {
		err = cs.initGenesis(genesis)
		if err != nil {
			return nil, err
		}
		return cs, nil
	}

	cs.tipHash, cs.tipHeight, err = deserializeTip(tipBytes)
	if err != nil {
		return nil, err
	}
	genesisHeader, found, err := cs.HeaderByHeight(0)
	if err != nil {
		return nil, err
	}
	if !found || *consensushashing.HeaderHash(genesisHeader) != *consensushashing.HeaderHash(genesis.Header) {
		return nil, errors.Errorf("the chain store at %s belongs to a different network", path)
	}

	multisetBytes, found, err := db.Get(multisetKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Errorf("the chain store at %s is missing its UTXO multiset", path)
	}
	cs.utxoSet, err = multiset.FromBytes(multisetBytes)
	if err != nil {
		return nil, err
	}

	log.Infof("Loaded chain store at height %d with tip %s", cs.tipHeight, cs.tipHash)
	return cs, nil
}

func (cs *ChainStore) initGenesis(genesis *externalapi.DomainBlock) error {
	dbTx, err := cs.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	utxoSet := multiset.New()
	genesisHash := consensushashing.HeaderHash(genesis.Header)
	err = cs.stageHeader(dbTx, genesis.Header, genesisHash, 0)
	if err != nil {
		return err
	}
	err = dbTx.Put(multisetKey, utxoSet.Serialize())
	if err != nil {
		return err
	}
	err = dbTx.Put(tipKey, serializeTip(genesisHash, 0))
	if err != nil {
		return err
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}

	cs.tipHash = genesisHash
	cs.tipHeight = 0
	cs.utxoSet = utxoSet
	log.Infof("Initialized chain store with genesis %s", genesisHash)
	return nil
}

// Close closes the underlying database.
func (cs *ChainStore) Close() error {
	cs.mtx.Lock()
	defer cs.mtx.Unlock()

	return cs.db.Close()
}

func (cs *ChainStore) stageHeader(dbTx *ldb.LevelDBTransaction, header *externalapi.DomainBlockHeader,
	blockHash *externalapi.DomainHash, height uint64) error {

	headerBuffer := &bytes.Buffer{}
	err := serialization.SerializeHeader(headerBuffer, header)
	if err != nil {
		return err
	}
	err = dbTx.Put(headerKey(height), headerBuffer.Bytes())
	if err != nil {
		return err
	}
	return dbTx.Put(heightKey(blockHash), serializeHeight(height))
}

// Output implements model.Store. Spent outputs are still returned; their
// metadata is flagged.
func (cs *ChainStore) Output(outpoint *externalapi.DomainOutpoint) (*externalapi.DomainTransactionOutput, bool, error) {
	output, _, found, err := cs.storedOutput(outpoint)
	return output, found, err
}

// OutputMeta implements model.Store.
func (cs *ChainStore) OutputMeta(outpoint *externalapi.DomainOutpoint) (*externalapi.OutputMeta, bool, error) {
	_, meta, found, err := cs.storedOutput(outpoint)
	return meta, found, err
}

func (cs *ChainStore) storedOutput(outpoint *externalapi.DomainOutpoint) (
	*externalapi.DomainTransactionOutput, *externalapi.OutputMeta, bool, error) {

	cs.mtx.RLock()
	defer cs.mtx.RUnlock()

	return cs.readOutput(outpoint)
}

func (cs *ChainStore) readOutput(outpoint *externalapi.DomainOutpoint) (
	*externalapi.DomainTransactionOutput, *externalapi.OutputMeta, bool, error) {

	if output, meta, ok := cs.outputCache.Get(outpoint); ok {
		return output, meta, true, nil
	}

	outputBytes, found, err := cs.db.Get(outputKey(outpoint))
	if err != nil || !found {
		return nil, nil, false, err
	}
	output, meta, err := utxo.DeserializeOutput(outputBytes)
	if err != nil {
		return nil, nil, false, errors.Wrapf(err, "failed deserializing the output %s", outpoint)
	}
	cs.outputCache.Add(outpoint, output, meta)
	return output, meta, true, nil
}

// HeaderByHash implements model.Store. Only headers of the best chain are
// found.
func (cs *ChainStore) HeaderByHash(blockHash *externalapi.DomainHash) (*externalapi.DomainBlockHeader, bool, error) {
	cs.mtx.RLock()
	heightBytes, found, err := cs.db.Get(heightKey(blockHash))
	cs.mtx.RUnlock()
	if err != nil || !found {
		return nil, false, err
	}
	height, err := deserializeHeight(heightBytes)
	if err != nil {
		return nil, false, err
	}
	return cs.HeaderByHeight(height)
}

// HeaderByHeight implements model.Store.
func (cs *ChainStore) HeaderByHeight(height uint64) (*externalapi.DomainBlockHeader, bool, error) {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()

	headerBytes, found, err := cs.db.Get(headerKey(height))
	if err != nil || !found {
		return nil, false, err
	}
	header, err := serialization.DeserializeHeader(bytes.NewReader(headerBytes))
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed deserializing the header at height %d", height)
	}
	return header, true, nil
}

// BestBlock implements model.Store.
func (cs *ChainStore) BestBlock() (*externalapi.DomainHash, uint64, error) {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()

	tipHash := *cs.tipHash
	return &tipHash, cs.tipHeight, nil
}

// UTXOCommitment returns the multiset hash of the unspent outputs.
func (cs *ChainStore) UTXOCommitment() *externalapi.DomainHash {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()

	return cs.utxoSet.Hash()
}
