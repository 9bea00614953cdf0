// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/hashes"
	"github.com/shardledger/shardd/domain/consensus/utils/serialization"
)

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint32

// Hash type bits from the end of a signature.
const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	// sigHashMask defines the number of bits of the hash type which is used
	// to identify which outputs are signed.
	sigHashMask = 0x1f
)

func (hashType SigHashType) isStandard() bool {
	switch hashType &^ SigHashAnyOneCanPay {
	case SigHashAll, SigHashNone, SigHashSingle:
		return true
	}
	return false
}

// CalcSignatureHash computes the legacy signature hash of the input at idx
// for the given locking script and hash type.
func CalcSignatureHash(script []byte, hashType SigHashType, tx *externalapi.DomainTransaction,
	idx int) (*externalapi.DomainHash, error) {

	if idx < 0 || idx >= len(tx.Inputs) {
		return nil, errors.Errorf("input index %d is out of range for %d inputs", idx, len(tx.Inputs))
	}

	// The legacy chain signs the value one when SIGHASH_SINGLE has no
	// matching output.
	if hashType&sigHashMask == SigHashSingle && idx >= len(tx.Outputs) {
		var hash externalapi.DomainHash
		hash[0] = 0x01
		return &hash, nil
	}

	pops, err := parseScript(script)
	if err != nil {
		return nil, err
	}
	subScript := unparseScript(removeOpcode(pops, OpCodeSeparator))

	// Make a shallow copy of the transaction, zeroing out the script for
	// all inputs that are not currently being processed.
	txCopy := &externalapi.DomainTransaction{
		Version:  tx.Version,
		Inputs:   make([]*externalapi.DomainTransactionInput, len(tx.Inputs)),
		Outputs:  tx.Outputs,
		LockTime: tx.LockTime,
	}
	for i, input := range tx.Inputs {
		inputCopy := &externalapi.DomainTransactionInput{
			PreviousOutpoint: input.PreviousOutpoint,
			Sequence:         input.Sequence,
		}
		if i == idx {
			inputCopy.SignatureScript = subScript
		}
		txCopy.Inputs[i] = inputCopy
	}

	switch hashType & sigHashMask {
	case SigHashNone:
		txCopy.Outputs = nil
		for i := range txCopy.Inputs {
			if i != idx {
				txCopy.Inputs[i].Sequence = 0
			}
		}

	case SigHashSingle:
		// Resize output array to up to and including requested index.
		outputs := make([]*externalapi.DomainTransactionOutput, idx+1)
		for i := 0; i < idx; i++ {
			outputs[i] = &externalapi.DomainTransactionOutput{Value: ^uint64(0)}
		}
		outputs[idx] = tx.Outputs[idx]
		txCopy.Outputs = outputs
		for i := range txCopy.Inputs {
			if i != idx {
				txCopy.Inputs[i].Sequence = 0
			}
		}
	}

	if hashType&SigHashAnyOneCanPay != 0 {
		txCopy.Inputs = txCopy.Inputs[idx : idx+1]
	}

	writer := hashes.NewDoubleHashWriter()
	err = serialization.SerializeTransaction(writer, txCopy, false)
	if err != nil {
		return nil, err
	}
	err = serialization.WriteElement(writer, uint32(hashType))
	if err != nil {
		return nil, err
	}
	return writer.Finalize(), nil
}

// CalcWitnessSignatureHash computes the version 0 witness signature hash of
// the input at idx. scriptCode is the script the signature commits to and
// amount is the value of the output the input spends.
func CalcWitnessSignatureHash(scriptCode []byte, hashType SigHashType, tx *externalapi.DomainTransaction,
	idx int, amount uint64) (*externalapi.DomainHash, error) {

	if idx < 0 || idx >= len(tx.Inputs) {
		return nil, errors.Errorf("input index %d is out of range for %d inputs", idx, len(tx.Inputs))
	}

	var zeroHash externalapi.DomainHash
	hashPrevOuts, hashSequence, hashOutputs := &zeroHash, &zeroHash, &zeroHash

	anyoneCanPay := hashType&SigHashAnyOneCanPay != 0
	baseType := hashType & sigHashMask

	if !anyoneCanPay {
		var buf bytes.Buffer
		for _, input := range tx.Inputs {
			_ = serialization.WriteElements(&buf, input.PreviousOutpoint.TransactionID, input.PreviousOutpoint.Index)
		}
		hashPrevOuts = hashes.DoubleHashData(buf.Bytes())
	}

	if !anyoneCanPay && baseType != SigHashSingle && baseType != SigHashNone {
		var buf bytes.Buffer
		for _, input := range tx.Inputs {
			_ = serialization.WriteElement(&buf, input.Sequence)
		}
		hashSequence = hashes.DoubleHashData(buf.Bytes())
	}

	switch {
	case baseType != SigHashSingle && baseType != SigHashNone:
		var buf bytes.Buffer
		for _, output := range tx.Outputs {
			_ = serialization.WriteElement(&buf, output.Value)
			_ = serialization.WriteVarBytes(&buf, output.ScriptPublicKey)
		}
		hashOutputs = hashes.DoubleHashData(buf.Bytes())
	case baseType == SigHashSingle && idx < len(tx.Outputs):
		var buf bytes.Buffer
		_ = serialization.WriteElement(&buf, tx.Outputs[idx].Value)
		_ = serialization.WriteVarBytes(&buf, tx.Outputs[idx].ScriptPublicKey)
		hashOutputs = hashes.DoubleHashData(buf.Bytes())
	}

	input := tx.Inputs[idx]
	writer := hashes.NewDoubleHashWriter()
	err := serialization.WriteElements(writer, tx.Version, hashPrevOuts, hashSequence,
		input.PreviousOutpoint.TransactionID, input.PreviousOutpoint.Index)
	if err != nil {
		return nil, err
	}
	err = serialization.WriteVarBytes(writer, scriptCode)
	if err != nil {
		return nil, err
	}
	err = serialization.WriteElements(writer, amount, input.Sequence, hashOutputs, tx.LockTime, uint32(hashType))
	if err != nil {
		return nil, err
	}
	return writer.Finalize(), nil
}
