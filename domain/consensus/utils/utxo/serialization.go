package utxo

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/serialization"
)

// OutpointSize is the size of a serialized outpoint.
const OutpointSize = externalapi.DomainHashSize + 4

const (
	flagCoinbase = 1 << iota
	flagSpent
)

// SerializeOutpoint returns the byte-slice representation of outpoint. It
// is used as a storage key, so equal outpoints serialize equally.
func SerializeOutpoint(outpoint *externalapi.DomainOutpoint) []byte {
	w := bytes.NewBuffer(make([]byte, 0, OutpointSize))
	// Writing into a bytes.Buffer can't fail
	_ = serializeOutpoint(w, outpoint)
	return w.Bytes()
}

// DeserializeOutpoint deserializes the given byte slice to an outpoint
func DeserializeOutpoint(outpointBytes []byte) (*externalapi.DomainOutpoint, error) {
	if len(outpointBytes) != OutpointSize {
		return nil, errors.Errorf("outpoint bytes expected to be in length of %d but got %d",
			OutpointSize, len(outpointBytes))
	}
	return deserializeOutpoint(bytes.NewReader(outpointBytes))
}

// SerializeOutput returns the byte-slice representation of a stored output
// and its confirmation metadata.
func SerializeOutput(output *externalapi.DomainTransactionOutput, meta *externalapi.OutputMeta) []byte {
	w := &bytes.Buffer{}
	_ = serializeOutput(w, output, meta, true)
	return w.Bytes()
}

// DeserializeOutput deserializes the given byte slice to an output and its
// confirmation metadata
func DeserializeOutput(outputBytes []byte) (*externalapi.DomainTransactionOutput, *externalapi.OutputMeta, error) {
	r := bytes.NewReader(outputBytes)
	output, meta, err := deserializeOutput(r)
	if err != nil {
		return nil, nil, err
	}
	if r.Len() != 0 {
		return nil, nil, errors.Errorf("%d trailing bytes after a stored output", r.Len())
	}
	return output, meta, nil
}

// SerializeUTXO returns the byte-slice representation of an unspent output
// as committed to by the UTXO set multiset. It doesn't include the spent
// flag, since spent outputs are not members of the set.
func SerializeUTXO(outpoint *externalapi.DomainOutpoint, output *externalapi.DomainTransactionOutput,
	meta *externalapi.OutputMeta) []byte {

	w := &bytes.Buffer{}
	_ = serializeOutpoint(w, outpoint)
	_ = serializeOutput(w, output, meta, false)
	return w.Bytes()
}

func serializeOutpoint(w io.Writer, outpoint *externalapi.DomainOutpoint) error {
	return serialization.WriteElements(w, outpoint.TransactionID, outpoint.Index)
}

func deserializeOutpoint(r io.Reader) (*externalapi.DomainOutpoint, error) {
	outpoint := &externalapi.DomainOutpoint{}
	err := serialization.ReadElements(r, &outpoint.TransactionID, &outpoint.Index)
	if err != nil {
		return nil, err
	}
	return outpoint, nil
}

func serializeOutput(w io.Writer, output *externalapi.DomainTransactionOutput, meta *externalapi.OutputMeta,
	withSpent bool) error {

	var flags uint8
	if meta.IsCoinbase {
		flags |= flagCoinbase
	}
	if withSpent && meta.IsSpent {
		flags |= flagSpent
	}
	err := serialization.WriteElements(w, meta.BlockHeight, flags, output.Value)
	if err != nil {
		return err
	}
	return serialization.WriteVarBytes(w, output.ScriptPublicKey)
}

func deserializeOutput(r io.Reader) (*externalapi.DomainTransactionOutput, *externalapi.OutputMeta, error) {
	output := &externalapi.DomainTransactionOutput{}
	meta := &externalapi.OutputMeta{}
	var flags uint8
	err := serialization.ReadElements(r, &meta.BlockHeight, &flags, &output.Value)
	if err != nil {
		return nil, nil, err
	}
	meta.IsCoinbase = flags&flagCoinbase != 0
	meta.IsSpent = flags&flagSpent != 0

	output.ScriptPublicKey, err = serialization.ReadVarBytes(r, "ScriptPublicKey")
	if err != nil {
		return nil, nil, err
	}
	return output, meta, nil
}
