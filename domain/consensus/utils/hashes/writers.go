package hashes

import (
	"crypto/sha256"
	"hash"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// HashWriter is used to incrementally hash data without concatenating all
// of the data to a single buffer. It exposes an io.Writer api and a Finalize
// function returning the double SHA-256 of everything written.
type HashWriter struct {
	hash.Hash
}

// NewDoubleHashWriter returns a new HashWriter.
func NewDoubleHashWriter() HashWriter {
	return HashWriter{sha256.New()}
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *externalapi.DomainHash {
	first := h.Sum(nil)
	second := externalapi.DomainHash(sha256.Sum256(first))
	return &second
}

// DoubleHashData returns the double SHA-256 of data.
func DoubleHashData(data []byte) *externalapi.DomainHash {
	writer := NewDoubleHashWriter()
	writer.InfallibleWrite(data)
	return writer.Finalize()
}
