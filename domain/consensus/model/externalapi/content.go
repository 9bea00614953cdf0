package externalapi

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformed is the panic value raised, wrapped with context, when a
// variant-specific operation is invoked on the wrong kind of content. It
// marks a programming error upstream and is never a consensus verdict.
var ErrMalformed = errors.New("ErrMalformed")

// ContentType identifies which of the two body variants a block carries.
type ContentType uint8

// ContentType values.
const (
	// ContentTypeTransactions is the body of a shard block.
	ContentTypeTransactions ContentType = iota

	// ContentTypeShardHeaders is the body of a beacon block.
	ContentTypeShardHeaders
)

func (ct ContentType) String() string {
	switch ct {
	case ContentTypeTransactions:
		return "Transactions"
	case ContentTypeShardHeaders:
		return "ShardHeaders"
	}
	return fmt.Sprintf("ContentType(%d)", uint8(ct))
}

// BlockContent is a block body. It holds exactly one of an ordered
// transaction list or an ordered shard header list, fixed at construction.
type BlockContent struct {
	contentType  ContentType
	transactions []*DomainTransaction
	shardHeaders []*ShardHeader
}

// NewTransactionsContent returns a shard block body.
func NewTransactionsContent(transactions []*DomainTransaction) *BlockContent {
	if transactions == nil {
		transactions = []*DomainTransaction{}
	}
	return &BlockContent{contentType: ContentTypeTransactions, transactions: transactions}
}

// NewShardHeadersContent returns a beacon block body.
func NewShardHeadersContent(shardHeaders []*ShardHeader) *BlockContent {
	if shardHeaders == nil {
		shardHeaders = []*ShardHeader{}
	}
	return &BlockContent{contentType: ContentTypeShardHeaders, shardHeaders: shardHeaders}
}

// Type returns the variant of the content.
func (content *BlockContent) Type() ContentType {
	return content.contentType
}

// Transactions returns the transactions of a Transactions body.
// It panics with ErrMalformed for any other variant.
func (content *BlockContent) Transactions() []*DomainTransaction {
	if content.contentType != ContentTypeTransactions {
		panic(errors.Wrapf(ErrMalformed, "Transactions called on %s content", content.contentType))
	}
	return content.transactions
}

// ShardHeaders returns the shard headers of a ShardHeaders body.
// It panics with ErrMalformed for any other variant.
func (content *BlockContent) ShardHeaders() []*ShardHeader {
	if content.contentType != ContentTypeShardHeaders {
		panic(errors.Wrapf(ErrMalformed, "ShardHeaders called on %s content", content.contentType))
	}
	return content.shardHeaders
}

// Len returns the number of items in the body regardless of its variant.
func (content *BlockContent) Len() int {
	if content.contentType == ContentTypeShardHeaders {
		return len(content.shardHeaders)
	}
	return len(content.transactions)
}

// Clone returns a deep clone of content.
func (content *BlockContent) Clone() *BlockContent {
	switch content.contentType {
	case ContentTypeTransactions:
		transactions := make([]*DomainTransaction, len(content.transactions))
		for i, tx := range content.transactions {
			transactions[i] = tx.Clone()
		}
		return NewTransactionsContent(transactions)
	case ContentTypeShardHeaders:
		shardHeaders := make([]*ShardHeader, len(content.shardHeaders))
		for i, shardHeader := range content.shardHeaders {
			shardHeaders[i] = shardHeader.Clone()
		}
		return NewShardHeadersContent(shardHeaders)
	}
	panic(errors.Wrapf(ErrMalformed, "unknown content type %s", content.contentType))
}
