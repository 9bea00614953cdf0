package chainstore

import (
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/multiset"
	"github.com/shardledger/shardd/domain/consensus/utils/utxo"
)

type stagedOutput struct {
	output *externalapi.DomainTransactionOutput
	meta   *externalapi.OutputMeta
}

// CommitBlock appends block to the chain at height, which must be one above
// the current tip. The block must already be validated: spending a missing
// or spent output is reported as an error and nothing is written. All
// writes of a block are applied atomically.
func (cs *ChainStore) CommitBlock(block *externalapi.DomainBlock, height uint64) error {
	cs.mtx.Lock()
	defer cs.mtx.Unlock()

	if height != cs.tipHeight+1 {
		return errors.Errorf("cannot commit a block at height %d on top of height %d", height, cs.tipHeight)
	}
	if block.Header.PrevBlockHash != *cs.tipHash {
		return errors.Errorf("cannot commit a block whose parent %s isn't the tip %s",
			block.Header.PrevBlockHash, cs.tipHash)
	}

	dbTx, err := cs.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	blockHash := consensushashing.HeaderHash(block.Header)
	err = cs.stageHeader(dbTx, block.Header, blockHash, height)
	if err != nil {
		return err
	}

	utxoSet := cs.utxoSet.Clone()
	staging := make(map[externalapi.DomainOutpoint]*stagedOutput)
	if block.Content.Type() == externalapi.ContentTypeTransactions {
		for i, tx := range block.Content.Transactions() {
			err = cs.stageTransaction(staging, utxoSet, tx, height, i == 0)
			if err != nil {
				return errors.Wrapf(err, "failed committing transaction %d of block %s", i, blockHash)
			}
		}
		for outpoint, staged := range staging {
			outpoint := outpoint
			err = dbTx.Put(outputKey(&outpoint), utxo.SerializeOutput(staged.output, staged.meta))
			if err != nil {
				return err
			}
		}
	}

	err = dbTx.Put(multisetKey, utxoSet.Serialize())
	if err != nil {
		return err
	}
	err = dbTx.Put(tipKey, serializeTip(blockHash, height))
	if err != nil {
		return err
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}

	for outpoint, staged := range staging {
		outpoint := outpoint
		cs.outputCache.Add(&outpoint, staged.output, staged.meta)
	}
	cs.tipHash = blockHash
	cs.tipHeight = height
	cs.utxoSet = utxoSet
	log.Debugf("Committed block %s at height %d", blockHash, height)
	return nil
}

type utxoMultiset interface {
	Add(data []byte)
	Remove(data []byte)
}

func (cs *ChainStore) stageTransaction(staging map[externalapi.DomainOutpoint]*stagedOutput,
	utxoSet utxoMultiset, tx *externalapi.DomainTransaction, height uint64, isCoinbase bool) error {

	if !isCoinbase {
		for _, input := range tx.Inputs {
			outpoint := &input.PreviousOutpoint
			staged, found, err := cs.stagedOrStoredOutput(staging, outpoint)
			if err != nil {
				return err
			}
			if !found {
				return errors.Errorf("output %s doesn't exist", outpoint)
			}
			if staged.meta.IsSpent {
				return errors.Errorf("output %s is already spent", outpoint)
			}
			utxoSet.Remove(utxo.SerializeUTXO(outpoint, staged.output, staged.meta))
			staged.meta.IsSpent = true
			staging[*outpoint] = staged
		}
	}

	transactionID := consensushashing.TransactionID(tx)
	for i, output := range tx.Outputs {
		outpoint := externalapi.NewDomainOutpoint(transactionID, uint32(i))
		existing, found, err := cs.stagedOrStoredOutput(staging, outpoint)
		if err != nil {
			return err
		}
		// A duplicate transaction overwrites the outputs of the original.
		if found && !existing.meta.IsSpent {
			utxoSet.Remove(utxo.SerializeUTXO(outpoint, existing.output, existing.meta))
		}

		staged := &stagedOutput{
			output: output.Clone(),
			meta:   &externalapi.OutputMeta{BlockHeight: height, IsCoinbase: isCoinbase},
		}
		utxoSet.Add(utxo.SerializeUTXO(outpoint, staged.output, staged.meta))
		staging[*outpoint] = staged
	}
	return nil
}

func (cs *ChainStore) stagedOrStoredOutput(staging map[externalapi.DomainOutpoint]*stagedOutput,
	outpoint *externalapi.DomainOutpoint) (*stagedOutput, bool, error) {

	if staged, ok := staging[*outpoint]; ok {
		return staged, true, nil
	}
	output, meta, found, err := cs.readOutput(outpoint)
	if err != nil || !found {
		return nil, false, err
	}
	return &stagedOutput{output: output, meta: meta}, true, nil
}

// VerifyUTXOCommitment recomputes the UTXO multiset from the stored outputs
// and compares it against the maintained commitment.
func (cs *ChainStore) VerifyUTXOCommitment() error {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()

	recomputed := multiset.New()
	unspentCount := 0
	err := cs.db.ForEach(outputsBucket, func(key []byte, value []byte) error {
		outpoint, err := utxo.DeserializeOutpoint(key[len(outputsBucket):])
		if err != nil {
			return err
		}
		output, meta, err := utxo.DeserializeOutput(value)
		if err != nil {
			return errors.Wrapf(err, "failed deserializing the output %s", outpoint)
		}
		if meta.IsSpent {
			return nil
		}
		recomputed.Add(utxo.SerializeUTXO(outpoint, output, meta))
		unspentCount++
		return nil
	})
	if err != nil {
		return err
	}

	if *recomputed.Hash() != *cs.utxoSet.Hash() {
		return errors.Errorf("the UTXO commitment %s doesn't match the %d stored unspent outputs, "+
			"which commit to %s", cs.utxoSet.Hash(), unspentCount, recomputed.Hash())
	}
	log.Infof("Verified the UTXO commitment over %d unspent outputs", unspentCount)
	return nil
}
