package externalapi

import (
	"fmt"
	"math"
)

// DomainTransaction represents a value-transfer transaction of a shard chain
type DomainTransaction struct {
	Version  int32
	Inputs   []*DomainTransactionInput
	Outputs  []*DomainTransactionOutput
	LockTime uint32
}

// DomainTransactionInput represents a transaction input. Witness is nil for
// inputs that carry no segregated witness data.
type DomainTransactionInput struct {
	PreviousOutpoint DomainOutpoint
	SignatureScript  []byte
	Sequence         uint32
	Witness          [][]byte
}

// DomainOutpoint references an output of a previous transaction
type DomainOutpoint struct {
	TransactionID DomainTransactionID
	Index         uint32
}

// NewDomainOutpoint returns a new outpoint for the given transaction ID and
// output index.
func NewDomainOutpoint(transactionID *DomainTransactionID, index uint32) *DomainOutpoint {
	return &DomainOutpoint{TransactionID: *transactionID, Index: index}
}

// String stringifies an outpoint.
func (op DomainOutpoint) String() string {
	return fmt.Sprintf("%s:%d", op.TransactionID, op.Index)
}

// IsNull returns whether the outpoint is the null outpoint used by coinbase
// inputs.
func (op DomainOutpoint) IsNull() bool {
	return op.Index == math.MaxUint32 && (*DomainHash)(&op.TransactionID).IsZero()
}

// DomainTransactionOutput represents a transaction output
type DomainTransactionOutput struct {
	Value           uint64
	ScriptPublicKey []byte
}

// Clone returns a deep clone of output.
func (output *DomainTransactionOutput) Clone() *DomainTransactionOutput {
	return &DomainTransactionOutput{
		Value:           output.Value,
		ScriptPublicKey: append([]byte(nil), output.ScriptPublicKey...),
	}
}

// DomainTransactionID is the witness-stripped hash of a transaction
type DomainTransactionID DomainHash

// String stringifies a transaction ID.
func (id DomainTransactionID) String() string {
	return DomainHash(id).String()
}

// IsCoinbase returns whether tx has the shape of a coinbase transaction:
// a single input spending the null outpoint.
func (tx *DomainTransaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PreviousOutpoint.IsNull()
}

// HasWitness returns whether any input of tx carries witness data.
func (tx *DomainTransaction) HasWitness() bool {
	for _, input := range tx.Inputs {
		if len(input.Witness) > 0 {
			return true
		}
	}
	return false
}

// Clone returns a deep clone of tx.
func (tx *DomainTransaction) Clone() *DomainTransaction {
	inputs := make([]*DomainTransactionInput, len(tx.Inputs))
	for i, input := range tx.Inputs {
		var witness [][]byte
		if input.Witness != nil {
			witness = make([][]byte, len(input.Witness))
			for j, item := range input.Witness {
				witness[j] = append([]byte(nil), item...)
			}
		}
		inputs[i] = &DomainTransactionInput{
			PreviousOutpoint: input.PreviousOutpoint,
			SignatureScript:  append([]byte(nil), input.SignatureScript...),
			Sequence:         input.Sequence,
			Witness:          witness,
		}
	}
	outputs := make([]*DomainTransactionOutput, len(tx.Outputs))
	for i, output := range tx.Outputs {
		outputs[i] = output.Clone()
	}
	return &DomainTransaction{
		Version:  tx.Version,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: tx.LockTime,
	}
}
