package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/hashes"
	"github.com/shardledger/shardd/domain/consensus/utils/serialization"
)

// BlockHash returns the given block's hash. It depends on the body only
// through the merkle root committed in the header.
func BlockHash(block *externalapi.DomainBlock) *externalapi.DomainHash {
	return HeaderHash(block.Header)
}

// HeaderHash returns the given header's hash
func HeaderHash(header *externalapi.DomainBlockHeader) *externalapi.DomainHash {
	writer := hashes.NewDoubleHashWriter()
	err := serialization.SerializeHeader(writer, header)
	if err != nil {
		// It seems like this could only happen if the writer returned an error.
		// and this writer should never return an error (no allocations or possible failures)
		// the only non-writer error path here is unknown types in `WriteElement`
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}
	return writer.Finalize()
}

// ShardHeaderHash returns the double hash of the shard header's canonical
// encoding.
func ShardHeaderHash(header *externalapi.ShardHeader) *externalapi.DomainHash {
	writer := hashes.NewDoubleHashWriter()
	err := serialization.SerializeShardHeader(writer, header)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}
	return writer.Finalize()
}
