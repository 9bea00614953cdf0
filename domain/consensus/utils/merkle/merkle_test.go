package merkle

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/serialization"
)

// block80000Hex is block 80000 of the legacy single-shard chain.
const block80000Hex = "01000000ba8b9cda965dd8e536670f9ddec10e53aab14b20bacad27b9137190000000000190760b278fe7b8565fda3b968b918d5fd997f993b23674c0af3b6fde300b38f33a5914ce6ed5b1b01e32f57020100000001000000000000000000000000000000000000000000000000000000000000" +
	"0000ffffffff0704e6ed5b1b014effffffff0100f2052a01000000434104b68a50eaa0287eff855189f949c1c6e5f58b37c88231373d8a59809cbae83059cc6469d65c665ccfd1cfeb75c6e8e19413bba7fbff9bc762419a76d87b16086eac000000000100000001a6b97044d03da79c005b20ea9c0e1a6d9dc12d9f7b91a5911c9030a439eed8f5000000004948304502206e21798a42fae0e854281abd38bacd1aeed3ee3738d9e1446618c4571d1090db022100e2ac980643b0b82c0e88ffdfec6b64e3e6ba35e7ba5fdd7d5d6cc8d25c6b241501ffffffff0100f2052a010000001976a914404371705fa9bd789a2fcd52d2c580b65d35549d88ac00000000"

func block80000(t *testing.T) *externalapi.DomainBlock {
	raw, err := hex.DecodeString(block80000Hex)
	if err != nil {
		t.Fatalf("block80000: %+v", err)
	}
	block, err := serialization.DeserializeLegacyBlock(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("block80000: DeserializeLegacyBlock: %+v", err)
	}
	return block
}

func TestLegacyBlockVector(t *testing.T) {
	block := block80000(t)

	if block.Content.Type() != externalapi.ContentTypeTransactions {
		t.Fatalf("TestLegacyBlockVector: expected Transactions content, got %s", block.Content.Type())
	}
	if len(block.Content.Transactions()) != 2 {
		t.Fatalf("TestLegacyBlockVector: expected 2 transactions, got %d", len(block.Content.Transactions()))
	}

	const expectedMerkleRoot = "8fb300e3fdb6f30a4c67233b997f99fdd518b968b9a3fd65857bfe78b2600719"
	merkleRoot := CalculateHashMerkleRoot(block.Content)
	if merkleRoot.String() != expectedMerkleRoot {
		t.Fatalf("TestLegacyBlockVector: merkle root mismatch - got %s, want %s", merkleRoot, expectedMerkleRoot)
	}
	if !merkleRoot.Equal(&block.Header.MerkleRoot) {
		t.Fatalf("TestLegacyBlockVector: computed root %s doesn't match the header's %s",
			merkleRoot, block.Header.MerkleRoot)
	}

	const expectedHash = "000000000043a8c0fd1d6f726790caa2a406010d19efd2780db27bdbbd93baf6"
	blockHash := consensushashing.BlockHash(block)
	if blockHash.String() != expectedHash {
		t.Fatalf("TestLegacyBlockVector: block hash mismatch - got %s, want %s", blockHash, expectedHash)
	}
}

func TestMerkleRootDeterminism(t *testing.T) {
	block := block80000(t)
	first := CalculateHashMerkleRoot(block.Content)
	second := CalculateHashMerkleRoot(block.Content.Clone())
	if !first.Equal(second) {
		t.Fatalf("TestMerkleRootDeterminism: recomputed root differs: %s != %s", first, second)
	}

	transactions := block.Content.Transactions()
	swapped := externalapi.NewTransactionsContent([]*externalapi.DomainTransaction{transactions[1], transactions[0]})
	if CalculateHashMerkleRoot(swapped).Equal(first) {
		t.Fatalf("TestMerkleRootDeterminism: reordering transactions didn't change the root")
	}

	mutated := block.Content.Clone()
	mutated.Transactions()[1].LockTime++
	if CalculateHashMerkleRoot(mutated).Equal(first) {
		t.Fatalf("TestMerkleRootDeterminism: mutating a transaction didn't change the root")
	}

	// Witness data doesn't change the transaction ID, and therefore the root
	withWitness := block.Content.Clone()
	withWitness.Transactions()[1].Inputs[0].Witness = [][]byte{{1, 2, 3}}
	if !CalculateHashMerkleRoot(withWitness).Equal(first) {
		t.Fatalf("TestMerkleRootDeterminism: witness data changed the root")
	}
	if CalculateWitnessMerkleRoot(withWitness).Equal(CalculateWitnessMerkleRoot(block.Content)) {
		t.Fatalf("TestMerkleRootDeterminism: witness data didn't change the witness root")
	}
}

func TestMerkleRootOddAndEmpty(t *testing.T) {
	empty := CalculateHashMerkleRoot(externalapi.NewTransactionsContent(nil))
	if !empty.IsZero() {
		t.Fatalf("TestMerkleRootOddAndEmpty: expected the zero hash for an empty content, got %s", empty)
	}

	a, b, c := &externalapi.DomainHash{1}, &externalapi.DomainHash{2}, &externalapi.DomainHash{3}
	odd := CalculateMerkleRoot([]*externalapi.DomainHash{a, b, c})
	padded := CalculateMerkleRoot([]*externalapi.DomainHash{a, b, c, c})
	if !odd.Equal(padded) {
		t.Fatalf("TestMerkleRootOddAndEmpty: a lone node must be paired with itself")
	}
	single := CalculateMerkleRoot([]*externalapi.DomainHash{a})
	if !single.Equal(a) {
		t.Fatalf("TestMerkleRootOddAndEmpty: the root of a single leaf is the leaf itself")
	}
}

func TestShardHeadersMerkleRoot(t *testing.T) {
	shardHeaders := []*externalapi.ShardHeader{
		{Version: 1, ShardID: 0, BlockHashes: []externalapi.DomainHash{{0xaa}}},
		{Version: 1, ShardID: 1, BlockHashes: []externalapi.DomainHash{{0xbb}, {0xcc}}},
	}
	content := externalapi.NewShardHeadersContent(shardHeaders)
	root := CalculateHashMerkleRoot(content)
	expected := CalculateMerkleRoot([]*externalapi.DomainHash{
		consensushashing.ShardHeaderHash(shardHeaders[0]),
		consensushashing.ShardHeaderHash(shardHeaders[1]),
	})
	if !root.Equal(expected) {
		t.Fatalf("TestShardHeadersMerkleRoot: got %s, want %s", root, expected)
	}
	if !CalculateHashMerkleRoot(content.Clone()).Equal(root) {
		t.Fatalf("TestShardHeadersMerkleRoot: root isn't deterministic")
	}
}

func TestWitnessMerkleRootOfShardHeadersPanics(t *testing.T) {
	content := externalapi.NewShardHeadersContent([]*externalapi.ShardHeader{{ShardID: 1}})
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("TestWitnessMerkleRootOfShardHeadersPanics: expected a panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, externalapi.ErrMalformed) {
			t.Fatalf("TestWitnessMerkleRootOfShardHeadersPanics: expected ErrMalformed, got %v", r)
		}
	}()
	CalculateWitnessMerkleRoot(content)
}
