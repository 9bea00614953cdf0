package serialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

const (
	witnessMarker = 0x00
	witnessFlag   = 0x01

	outpointSize = externalapi.DomainHashSize + 4
)

// SerializeTransaction writes tx to w. When withWitness is set and tx carries
// witness data, the segregated witness encoding is used: a zero marker and
// a flag byte follow the version, and every input's witness stack precedes
// the lock time.
func SerializeTransaction(w io.Writer, tx *externalapi.DomainTransaction, withWitness bool) error {
	withWitness = withWitness && tx.HasWitness()

	err := WriteElement(w, tx.Version)
	if err != nil {
		return err
	}
	if withWitness {
		err = WriteElements(w, uint8(witnessMarker), uint8(witnessFlag))
		if err != nil {
			return err
		}
	}

	err = WriteVarInt(w, uint64(len(tx.Inputs)))
	if err != nil {
		return err
	}
	for _, input := range tx.Inputs {
		err = WriteElements(w, input.PreviousOutpoint.TransactionID, input.PreviousOutpoint.Index)
		if err != nil {
			return err
		}
		err = WriteVarBytes(w, input.SignatureScript)
		if err != nil {
			return err
		}
		err = WriteElement(w, input.Sequence)
		if err != nil {
			return err
		}
	}

	err = WriteVarInt(w, uint64(len(tx.Outputs)))
	if err != nil {
		return err
	}
	for _, output := range tx.Outputs {
		err = WriteElement(w, output.Value)
		if err != nil {
			return err
		}
		err = WriteVarBytes(w, output.ScriptPublicKey)
		if err != nil {
			return err
		}
	}

	if withWitness {
		for _, input := range tx.Inputs {
			err = WriteVarInt(w, uint64(len(input.Witness)))
			if err != nil {
				return err
			}
			for _, item := range input.Witness {
				err = WriteVarBytes(w, item)
				if err != nil {
					return err
				}
			}
		}
	}

	return WriteElement(w, tx.LockTime)
}

// DeserializeTransaction reads a transaction in either the legacy or the
// segregated witness encoding from r.
func DeserializeTransaction(r io.Reader) (*externalapi.DomainTransaction, error) {
	tx := &externalapi.DomainTransaction{}
	err := ReadElement(r, &tx.Version)
	if err != nil {
		return nil, err
	}

	inputCount, err := readCount(r, "transaction inputs")
	if err != nil {
		return nil, err
	}

	hasWitness := false
	if inputCount == witnessMarker {
		var flag uint8
		err = ReadElement(r, &flag)
		if err != nil {
			return nil, err
		}
		if flag != witnessFlag {
			return nil, errors.Wrapf(errMalformed, "witness flag must be %d, got %d", witnessFlag, flag)
		}
		hasWitness = true
		inputCount, err = readCount(r, "transaction inputs")
		if err != nil {
			return nil, err
		}
	}

	tx.Inputs = make([]*externalapi.DomainTransactionInput, inputCount)
	for i := range tx.Inputs {
		input := &externalapi.DomainTransactionInput{}
		err = ReadElements(r, &input.PreviousOutpoint.TransactionID, &input.PreviousOutpoint.Index)
		if err != nil {
			return nil, err
		}
		input.SignatureScript, err = ReadVarBytes(r, "signature script")
		if err != nil {
			return nil, err
		}
		err = ReadElement(r, &input.Sequence)
		if err != nil {
			return nil, err
		}
		tx.Inputs[i] = input
	}

	outputCount, err := readCount(r, "transaction outputs")
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]*externalapi.DomainTransactionOutput, outputCount)
	for i := range tx.Outputs {
		output := &externalapi.DomainTransactionOutput{}
		err = ReadElement(r, &output.Value)
		if err != nil {
			return nil, err
		}
		output.ScriptPublicKey, err = ReadVarBytes(r, "script public key")
		if err != nil {
			return nil, err
		}
		tx.Outputs[i] = output
	}

	if hasWitness {
		for _, input := range tx.Inputs {
			itemCount, err := readCount(r, "witness items")
			if err != nil {
				return nil, err
			}
			input.Witness = make([][]byte, itemCount)
			for j := range input.Witness {
				input.Witness[j], err = ReadVarBytes(r, "witness item")
				if err != nil {
					return nil, err
				}
			}
		}
		if !tx.HasWitness() {
			return nil, errors.Wrap(errMalformed, "witness flag set on a transaction without witness data")
		}
	}

	err = ReadElement(r, &tx.LockTime)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// TransactionSerializeSize returns the number of bytes SerializeTransaction
// would write for tx.
func TransactionSerializeSize(tx *externalapi.DomainTransaction, withWitness bool) int {
	withWitness = withWitness && tx.HasWitness()

	// version and lock time
	size := 8
	if withWitness {
		size += 2
	}
	size += VarIntSerializeSize(uint64(len(tx.Inputs)))
	for _, input := range tx.Inputs {
		size += outpointSize + 4 + varBytesSerializeSize(input.SignatureScript)
		if withWitness {
			size += VarIntSerializeSize(uint64(len(input.Witness)))
			for _, item := range input.Witness {
				size += varBytesSerializeSize(item)
			}
		}
	}
	size += VarIntSerializeSize(uint64(len(tx.Outputs)))
	for _, output := range tx.Outputs {
		size += 8 + varBytesSerializeSize(output.ScriptPublicKey)
	}
	return size
}

func varBytesSerializeSize(bytes []byte) int {
	return VarIntSerializeSize(uint64(len(bytes))) + len(bytes)
}

// TransactionToBytes returns the encoding of tx.
func TransactionToBytes(tx *externalapi.DomainTransaction, withWitness bool) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, TransactionSerializeSize(tx, withWitness)))
	err := SerializeTransaction(buf, tx, withWitness)
	if err != nil {
		panic(errors.Wrap(err, "writing to a bytes.Buffer never fails"))
	}
	return buf.Bytes()
}
