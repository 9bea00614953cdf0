package testutils

import (
	"math"

	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/merkle"
	"github.com/shardledger/shardd/domain/consensus/utils/txscript"
)

// CoinbaseTransaction returns a coinbase for a block at height that pays
// value to an anyone-can-spend script.
func CoinbaseTransaction(height uint64, value uint64) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Version: 1,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{Index: math.MaxUint32},
			SignatureScript:  txscript.CoinbaseScript(height, 0),
			Sequence:         math.MaxUint32,
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{
			Value:           value,
			ScriptPublicKey: OpTrueScript(),
		}},
	}
}

// SpendTransaction returns a transaction spending outpoints into outputs of
// the given values, all paying to an anyone-can-spend script.
func SpendTransaction(outputValues []uint64, outpoints ...*externalapi.DomainOutpoint) *externalapi.DomainTransaction {
	tx := &externalapi.DomainTransaction{Version: 1}
	for _, outpoint := range outpoints {
		tx.Inputs = append(tx.Inputs, &externalapi.DomainTransactionInput{
			PreviousOutpoint: *outpoint,
			SignatureScript:  []byte{},
			Sequence:         math.MaxUint32,
		})
	}
	for _, value := range outputValues {
		tx.Outputs = append(tx.Outputs, &externalapi.DomainTransactionOutput{
			Value:           value,
			ScriptPublicKey: OpTrueScript(),
		})
	}
	return tx
}

// Outpoint returns the outpoint of output index of tx.
func Outpoint(tx *externalapi.DomainTransaction, index uint32) *externalapi.DomainOutpoint {
	return externalapi.NewDomainOutpoint(consensushashing.TransactionID(tx), index)
}

// BuildBlock returns a block with the given content on top of parent. Its
// header commits to the content and carries the parent's bits and a
// timestamp ten minutes after the parent's.
func BuildBlock(parent *externalapi.DomainBlockHeader, content *externalapi.BlockContent) *externalapi.DomainBlock {
	header := &externalapi.DomainBlockHeader{
		Version:       4,
		PrevBlockHash: *consensushashing.HeaderHash(parent),
		MerkleRoot:    *merkle.CalculateHashMerkleRoot(content),
		Timestamp:     parent.Timestamp + 600,
		Bits:          parent.Bits,
	}
	return externalapi.NewDomainBlock(header, content)
}

// BuildTransactionsBlock is BuildBlock for shard block content.
func BuildTransactionsBlock(parent *externalapi.DomainBlockHeader,
	transactions ...*externalapi.DomainTransaction) *externalapi.DomainBlock {

	return BuildBlock(parent, externalapi.NewTransactionsContent(transactions))
}

// UpdateMerkleRoot recommits the header of block to its current content.
func UpdateMerkleRoot(block *externalapi.DomainBlock) {
	block.Header.MerkleRoot = *merkle.CalculateHashMerkleRoot(block.Content)
}
