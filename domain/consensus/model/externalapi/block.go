package externalapi

import (
	"github.com/pkg/errors"
)

// DomainBlock is a header together with its body
type DomainBlock struct {
	Header  *DomainBlockHeader
	Content *BlockContent
}

// NewDomainBlock returns a block with the given header and content. It
// panics with ErrMalformed if either is nil.
func NewDomainBlock(header *DomainBlockHeader, content *BlockContent) *DomainBlock {
	if header == nil || content == nil {
		panic(errors.Wrap(ErrMalformed, "a block requires both a header and a content"))
	}
	return &DomainBlock{Header: header, Content: content}
}

// Clone returns a clone of DomainBlock
func (block *DomainBlock) Clone() *DomainBlock {
	return &DomainBlock{
		Header:  block.Header.Clone(),
		Content: block.Content.Clone(),
	}
}

// DomainBlockHeader is the 80-byte header of a block
type DomainBlockHeader struct {
	Version       int32
	PrevBlockHash DomainHash
	MerkleRoot    DomainHash
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
}

// Clone returns a clone of DomainBlockHeader
func (header *DomainBlockHeader) Clone() *DomainBlockHeader {
	clone := *header
	return &clone
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainBlockHeader{0, DomainHash{}, DomainHash{}, 0, 0, 0}

// Equal returns whether header equals to other
func (header *DomainBlockHeader) Equal(other *DomainBlockHeader) bool {
	if header == nil || other == nil {
		return header == other
	}
	return *header == *other
}
