package serialization

import (
	"io"

	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// HeaderSize is the size of a serialized block header.
const HeaderSize = 80

// SerializeHeader writes the 80-byte encoding of header to w.
func SerializeHeader(w io.Writer, header *externalapi.DomainBlockHeader) error {
	return WriteElements(w, header.Version, header.PrevBlockHash, header.MerkleRoot,
		header.Timestamp, header.Bits, header.Nonce)
}

// DeserializeHeader reads an 80-byte block header from r.
func DeserializeHeader(r io.Reader) (*externalapi.DomainBlockHeader, error) {
	header := &externalapi.DomainBlockHeader{}
	err := ReadElements(r, &header.Version, &header.PrevBlockHash, &header.MerkleRoot,
		&header.Timestamp, &header.Bits, &header.Nonce)
	if err != nil {
		return nil, err
	}
	return header, nil
}
