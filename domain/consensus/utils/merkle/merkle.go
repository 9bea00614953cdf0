// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/hashes"
)

// nextPowerOfTwo returns the next highest power of two from a given number if
// it is not already a power of two. This is a helper function used during the
// calculation of a merkle tree.
func nextPowerOfTwo(n int) int {
	// Return the number if it's already a power of 2.
	if n&(n-1) == 0 {
		return n
	}

	// Figure out and return the next power of two.
	exponent := uint(math.Log2(float64(n))) + 1
	return 1 << exponent // 2^exponent
}

// hashMerkleBranches takes two hashes, treated as the left and right tree
// nodes, and returns the hash of their concatenation. This is a helper
// function used to aid in the generation of a merkle tree.
func hashMerkleBranches(left, right *externalapi.DomainHash) *externalapi.DomainHash {
	writer := hashes.NewDoubleHashWriter()
	writer.InfallibleWrite(left[:])
	writer.InfallibleWrite(right[:])
	return writer.Finalize()
}

// CalculateMerkleRoot returns the root of the merkle tree over leaves. The
// tree is built bottom up. A node with no right sibling is paired with
// itself. The root of an empty leaf list is the zero hash.
func CalculateMerkleRoot(leaves []*externalapi.DomainHash) *externalapi.DomainHash {
	if len(leaves) == 0 {
		zero := externalapi.ZeroHash
		return &zero
	}

	// Calculate how many entries are required to hold the binary merkle
	// tree as a linear array and create an array of that size.
	nextPoT := nextPowerOfTwo(len(leaves))
	arraySize := nextPoT*2 - 1
	merkles := make([]*externalapi.DomainHash, arraySize)
	copy(merkles, leaves)

	// Start the array offset after the last leaf and adjusted to the
	// next power of two.
	offset := nextPoT
	for i := 0; i < arraySize-1; i += 2 {
		switch {
		// When there is no left child node, the parent is nil too.
		case merkles[i] == nil:
			merkles[offset] = nil

		// When there is no right child, the parent is generated by
		// hashing the concatenation of the left child with itself.
		case merkles[i+1] == nil:
			merkles[offset] = hashMerkleBranches(merkles[i], merkles[i])

		// The normal case sets the parent node to the double sha256
		// of the concatentation of the left and right children.
		default:
			merkles[offset] = hashMerkleBranches(merkles[i], merkles[i+1])
		}
		offset++
	}

	return merkles[len(merkles)-1]
}

// CalculateHashMerkleRoot returns the merkle root committed in the header
// of a block with the given content: the root over transaction IDs for
// Transactions, or over shard header hashes for ShardHeaders.
func CalculateHashMerkleRoot(content *externalapi.BlockContent) *externalapi.DomainHash {
	switch content.Type() {
	case externalapi.ContentTypeTransactions:
		transactions := content.Transactions()
		leaves := make([]*externalapi.DomainHash, len(transactions))
		for i, tx := range transactions {
			leaves[i] = (*externalapi.DomainHash)(consensushashing.TransactionID(tx))
		}
		return CalculateMerkleRoot(leaves)

	case externalapi.ContentTypeShardHeaders:
		shardHeaders := content.ShardHeaders()
		leaves := make([]*externalapi.DomainHash, len(shardHeaders))
		for i, shardHeader := range shardHeaders {
			leaves[i] = consensushashing.ShardHeaderHash(shardHeader)
		}
		return CalculateMerkleRoot(leaves)
	}
	panic(errors.Wrapf(externalapi.ErrMalformed, "unknown content type %s", content.Type()))
}

// CalculateWitnessMerkleRoot returns the root over witness hashes with the
// coinbase entry replaced by the zero hash. Shard headers carry no witness
// data, so it panics with ErrMalformed for ShardHeaders content.
func CalculateWitnessMerkleRoot(content *externalapi.BlockContent) *externalapi.DomainHash {
	if content.Type() != externalapi.ContentTypeTransactions {
		panic(errors.Wrapf(externalapi.ErrMalformed, "witness merkle root is undefined for %s content",
			content.Type()))
	}
	transactions := content.Transactions()
	leaves := make([]*externalapi.DomainHash, len(transactions))
	for i, tx := range transactions {
		if i == 0 {
			zero := externalapi.ZeroHash
			leaves[i] = &zero
			continue
		}
		leaves[i] = consensushashing.TransactionWitnessHash(tx)
	}
	return CalculateMerkleRoot(leaves)
}
