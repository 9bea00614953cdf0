package serialization

import (
	"io"

	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// SerializeShardHeader writes the canonical encoding of a shard header to w.
func SerializeShardHeader(w io.Writer, header *externalapi.ShardHeader) error {
	err := WriteElements(w, header.Version, header.ShardID)
	if err != nil {
		return err
	}
	err = WriteVarInt(w, uint64(len(header.BlockHashes)))
	if err != nil {
		return err
	}
	for _, hash := range header.BlockHashes {
		err = WriteElement(w, hash)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeserializeShardHeader reads a shard header from r.
func DeserializeShardHeader(r io.Reader) (*externalapi.ShardHeader, error) {
	header := &externalapi.ShardHeader{}
	err := ReadElements(r, &header.Version, &header.ShardID)
	if err != nil {
		return nil, err
	}
	count, err := readCount(r, "shard block hashes")
	if err != nil {
		return nil, err
	}
	header.BlockHashes = make([]externalapi.DomainHash, count)
	for i := range header.BlockHashes {
		err = ReadElement(r, &header.BlockHashes[i])
		if err != nil {
			return nil, err
		}
	}
	return header, nil
}

// ShardHeaderSerializeSize returns the number of bytes SerializeShardHeader
// would write for header.
func ShardHeaderSerializeSize(header *externalapi.ShardHeader) int {
	return 8 + VarIntSerializeSize(uint64(len(header.BlockHashes))) +
		len(header.BlockHashes)*externalapi.DomainHashSize
}
