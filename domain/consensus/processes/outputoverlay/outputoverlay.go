package outputoverlay

import (
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
)

type inBlockOutput struct {
	output           *externalapi.DomainTransactionOutput
	transactionIndex int
}

type committedOutput struct {
	output *externalapi.DomainTransactionOutput
	meta   *externalapi.OutputMeta
}

// OutputOverlay answers output lookups for the transactions of one candidate
// block. Outputs created by earlier transactions of the block shadow the
// committed chain state. Everything it needs from the store is fetched by
// New, so lookups never do I/O and are safe for concurrent use.
type OutputOverlay struct {
	height uint64

	inBlock   map[externalapi.DomainOutpoint]inBlockOutput
	committed map[externalapi.DomainOutpoint]committedOutput

	// firstSpender maps every outpoint the block spends to the index of the
	// first transaction spending it.
	firstSpender map[externalapi.DomainOutpoint]int
}

// New builds the overlay of the given block transactions, which are to be
// confirmed at height.
func New(store model.Store, transactions []*externalapi.DomainTransaction, height uint64) (*OutputOverlay, error) {
	overlay := &OutputOverlay{
		height:       height,
		inBlock:      make(map[externalapi.DomainOutpoint]inBlockOutput),
		committed:    make(map[externalapi.DomainOutpoint]committedOutput),
		firstSpender: make(map[externalapi.DomainOutpoint]int),
	}

	for i, tx := range transactions {
		transactionID := consensushashing.TransactionID(tx)
		for j, output := range tx.Outputs {
			outpoint := externalapi.DomainOutpoint{TransactionID: *transactionID, Index: uint32(j)}
			if _, exists := overlay.inBlock[outpoint]; exists {
				continue
			}
			overlay.inBlock[outpoint] = inBlockOutput{output: output, transactionIndex: i}
		}
	}

	for i, tx := range transactions {
		if tx.IsCoinbase() {
			continue
		}
		for _, input := range tx.Inputs {
			outpoint := input.PreviousOutpoint
			if _, exists := overlay.firstSpender[outpoint]; !exists {
				overlay.firstSpender[outpoint] = i
			}
			err := overlay.fetchCommitted(store, &outpoint)
			if err != nil {
				return nil, err
			}
		}
	}

	return overlay, nil
}

func (o *OutputOverlay) fetchCommitted(store model.Store, outpoint *externalapi.DomainOutpoint) error {
	if _, exists := o.inBlock[*outpoint]; exists {
		return nil
	}
	if _, exists := o.committed[*outpoint]; exists {
		return nil
	}

	output, found, err := store.Output(outpoint)
	if err != nil {
		return errors.Wrapf(err, "failed fetching output %s", outpoint)
	}
	if !found {
		return nil
	}
	meta, found, err := store.OutputMeta(outpoint)
	if err != nil {
		return errors.Wrapf(err, "failed fetching the metadata of output %s", outpoint)
	}
	if !found {
		return errors.Errorf("output %s has no metadata", outpoint)
	}
	o.committed[*outpoint] = committedOutput{output: output, meta: meta}
	return nil
}

// Height returns the height the overlay's block is confirmed at.
func (o *OutputOverlay) Height() uint64 {
	return o.height
}

// Entry returns the output referenced by outpoint as the transaction at
// transactionIndex sees it: created by an earlier transaction of the block,
// or committed to the chain. Spent state is ignored.
func (o *OutputOverlay) Entry(transactionIndex int, outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, bool) {
	if created, ok := o.inBlock[*outpoint]; ok {
		if created.transactionIndex >= transactionIndex {
			return nil, false
		}
		return &externalapi.UTXOEntry{
			Amount:          created.output.Value,
			ScriptPublicKey: created.output.ScriptPublicKey,
			BlockHeight:     o.height,
			IsCoinbase:      created.transactionIndex == 0,
		}, true
	}

	committed, ok := o.committed[*outpoint]
	if !ok {
		return nil, false
	}
	return &externalapi.UTXOEntry{
		Amount:          committed.output.Value,
		ScriptPublicKey: committed.output.ScriptPublicKey,
		BlockHeight:     committed.meta.BlockHeight,
		IsCoinbase:      committed.meta.IsCoinbase,
	}, true
}

// Lookup resolves an input of the transaction at transactionIndex. It fails
// with ErrMissingTxOut if the output isn't visible, with ErrDoubleSpend if a
// committed block already spent it, and with ErrDoubleSpendInSameBlock if an
// earlier transaction of this block spends it.
func (o *OutputOverlay) Lookup(transactionIndex int, outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, error) {
	entry, ok := o.Entry(transactionIndex, outpoint)
	if !ok {
		return nil, ruleerrors.NewErrMissingTxOut([]*externalapi.DomainOutpoint{outpoint})
	}

	if committed, ok := o.committed[*outpoint]; ok && committed.meta.IsSpent {
		return nil, errors.Wrapf(ruleerrors.ErrDoubleSpend, "output %s is already spent", outpoint)
	}

	if firstSpender, ok := o.firstSpender[*outpoint]; ok && firstSpender < transactionIndex {
		return nil, errors.Wrapf(ruleerrors.ErrDoubleSpendInSameBlock,
			"output %s is already spent by transaction %d", outpoint, firstSpender)
	}

	return entry, nil
}
