package serialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// SerializeBlock writes the tagged encoding of block to w: the header, a
// content type byte, and the content items.
func SerializeBlock(w io.Writer, block *externalapi.DomainBlock, withWitness bool) error {
	err := SerializeHeader(w, block.Header)
	if err != nil {
		return err
	}
	err = WriteElement(w, uint8(block.Content.Type()))
	if err != nil {
		return err
	}
	return serializeContentItems(w, block.Content, withWitness)
}

// DeserializeBlock reads a block in the tagged encoding from r.
func DeserializeBlock(r io.Reader) (*externalapi.DomainBlock, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	var contentType uint8
	err = ReadElement(r, &contentType)
	if err != nil {
		return nil, err
	}

	var content *externalapi.BlockContent
	switch externalapi.ContentType(contentType) {
	case externalapi.ContentTypeTransactions:
		content, err = deserializeTransactionsContent(r)
	case externalapi.ContentTypeShardHeaders:
		content, err = deserializeShardHeadersContent(r)
	default:
		return nil, errors.Wrapf(errMalformed, "unknown block content type %d", contentType)
	}
	if err != nil {
		return nil, err
	}
	return externalapi.NewDomainBlock(header, content), nil
}

// SerializeLegacyBlock writes a transaction-bearing block in the untagged
// legacy encoding: the header followed directly by the transactions.
func SerializeLegacyBlock(w io.Writer, block *externalapi.DomainBlock, withWitness bool) error {
	if block.Content.Type() != externalapi.ContentTypeTransactions {
		return errors.Wrapf(errMalformed, "the legacy encoding can't carry %s content", block.Content.Type())
	}
	err := SerializeHeader(w, block.Header)
	if err != nil {
		return err
	}
	return serializeContentItems(w, block.Content, withWitness)
}

// DeserializeLegacyBlock reads a block in the untagged legacy encoding from
// r. The result always carries Transactions content.
func DeserializeLegacyBlock(r io.Reader) (*externalapi.DomainBlock, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	content, err := deserializeTransactionsContent(r)
	if err != nil {
		return nil, err
	}
	return externalapi.NewDomainBlock(header, content), nil
}

// BlockToBytes returns the tagged encoding of block.
func BlockToBytes(block *externalapi.DomainBlock) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, BlockSerializeSize(block, true)))
	err := SerializeBlock(buf, block, true)
	if err != nil {
		panic(errors.Wrap(err, "writing to a bytes.Buffer never fails"))
	}
	return buf.Bytes()
}

// BlockSerializeSize returns the size of the tagged encoding of block.
func BlockSerializeSize(block *externalapi.DomainBlock, withWitness bool) int {
	size := HeaderSize + 1 + VarIntSerializeSize(uint64(block.Content.Len()))
	switch block.Content.Type() {
	case externalapi.ContentTypeTransactions:
		for _, tx := range block.Content.Transactions() {
			size += TransactionSerializeSize(tx, withWitness)
		}
	case externalapi.ContentTypeShardHeaders:
		for _, shardHeader := range block.Content.ShardHeaders() {
			size += ShardHeaderSerializeSize(shardHeader)
		}
	}
	return size
}

func serializeContentItems(w io.Writer, content *externalapi.BlockContent, withWitness bool) error {
	err := WriteVarInt(w, uint64(content.Len()))
	if err != nil {
		return err
	}
	switch content.Type() {
	case externalapi.ContentTypeTransactions:
		for _, tx := range content.Transactions() {
			err = SerializeTransaction(w, tx, withWitness)
			if err != nil {
				return err
			}
		}
	case externalapi.ContentTypeShardHeaders:
		for _, shardHeader := range content.ShardHeaders() {
			err = SerializeShardHeader(w, shardHeader)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func deserializeTransactionsContent(r io.Reader) (*externalapi.BlockContent, error) {
	count, err := readCount(r, "block transactions")
	if err != nil {
		return nil, err
	}
	transactions := make([]*externalapi.DomainTransaction, count)
	for i := range transactions {
		transactions[i], err = DeserializeTransaction(r)
		if err != nil {
			return nil, err
		}
	}
	return externalapi.NewTransactionsContent(transactions), nil
}

func deserializeShardHeadersContent(r io.Reader) (*externalapi.BlockContent, error) {
	count, err := readCount(r, "shard headers")
	if err != nil {
		return nil, err
	}
	shardHeaders := make([]*externalapi.ShardHeader, count)
	for i := range shardHeaders {
		shardHeaders[i], err = DeserializeShardHeader(r)
		if err != nil {
			return nil, err
		}
	}
	return externalapi.NewShardHeadersContent(shardHeaders), nil
}
