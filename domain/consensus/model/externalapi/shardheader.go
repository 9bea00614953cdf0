package externalapi

// ShardHeader commits one shard's chain extension for a beacon round: the
// ordered hashes of the shard blocks appended since the previous round.
type ShardHeader struct {
	Version     int32
	ShardID     int32
	BlockHashes []DomainHash
}

// Clone returns a clone of ShardHeader
func (header *ShardHeader) Clone() *ShardHeader {
	return &ShardHeader{
		Version:     header.Version,
		ShardID:     header.ShardID,
		BlockHashes: append([]DomainHash(nil), header.BlockHashes...),
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = ShardHeader{0, 0, []DomainHash{}}

// Equal returns whether header equals to other
func (header *ShardHeader) Equal(other *ShardHeader) bool {
	if header == nil || other == nil {
		return header == other
	}
	return header.Version == other.Version &&
		header.ShardID == other.ShardID &&
		HashesEqual(header.BlockHashes, other.BlockHashes)
}
