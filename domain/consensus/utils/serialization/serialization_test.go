package serialization

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

func TestVarInt(t *testing.T) {
	tests := []struct {
		value uint64
		size  int
	}{
		{0, 1},
		{0xfc, 1},
		{0xfd, 3},
		{0xffff, 3},
		{0x10000, 5},
		{0xffffffff, 5},
		{0x100000000, 9},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		if err := WriteVarInt(&buf, test.value); err != nil {
			t.Fatalf("WriteVarInt(%d): %+v", test.value, err)
		}
		if buf.Len() != test.size || VarIntSerializeSize(test.value) != test.size {
			t.Fatalf("WriteVarInt(%d): got size %d, want %d", test.value, buf.Len(), test.size)
		}
		value, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %+v", test.value, err)
		}
		if value != test.value {
			t.Fatalf("ReadVarInt: got %d, want %d", value, test.value)
		}
	}

	_, err := ReadVarInt(bytes.NewReader([]byte{0xfd, 0x10, 0x00}))
	if !IsMalformedError(err) {
		t.Fatalf("ReadVarInt: expected a malformed error for a non-canonical encoding, got %v", err)
	}
}

func testTransaction() *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Version: 2,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{1, 2, 3}, Index: 1},
			SignatureScript:  []byte{0x51},
			Sequence:         0xfffffffe,
			Witness:          [][]byte{{0x30, 0x44}, {0x02, 0x03}},
		}},
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: 5000, ScriptPublicKey: []byte{0x76, 0xa9}},
		},
		LockTime: 77,
	}
}

func TestTransactionEncoding(t *testing.T) {
	tx := testTransaction()
	for _, withWitness := range []bool{true, false} {
		encoded := TransactionToBytes(tx, withWitness)
		if len(encoded) != TransactionSerializeSize(tx, withWitness) {
			t.Fatalf("TestTransactionEncoding: size mismatch: %d != %d",
				len(encoded), TransactionSerializeSize(tx, withWitness))
		}
		decoded, err := DeserializeTransaction(bytes.NewReader(encoded))
		if err != nil {
			t.Fatalf("TestTransactionEncoding: %+v", err)
		}
		if decoded.HasWitness() != withWitness {
			t.Fatalf("TestTransactionEncoding: witness presence mismatch, got %s", spew.Sdump(decoded))
		}
		if !bytes.Equal(TransactionToBytes(decoded, true), encoded) {
			t.Fatalf("TestTransactionEncoding: re-encoding differs")
		}
	}
}

func TestBlockEncoding(t *testing.T) {
	header := &externalapi.DomainBlockHeader{Version: 4, Timestamp: 1600000000, Bits: 0x207fffff}
	blocks := []*externalapi.DomainBlock{
		externalapi.NewDomainBlock(header, externalapi.NewTransactionsContent([]*externalapi.DomainTransaction{testTransaction()})),
		externalapi.NewDomainBlock(header, externalapi.NewShardHeadersContent([]*externalapi.ShardHeader{
			{Version: 1, ShardID: 2, BlockHashes: []externalapi.DomainHash{{9}}},
		})),
	}
	for _, block := range blocks {
		encoded := BlockToBytes(block)
		if len(encoded) != BlockSerializeSize(block, true) {
			t.Fatalf("TestBlockEncoding: size mismatch for %s", block.Content.Type())
		}
		decoded, err := DeserializeBlock(bytes.NewReader(encoded))
		if err != nil {
			t.Fatalf("TestBlockEncoding: %+v", err)
		}
		if decoded.Content.Type() != block.Content.Type() || !decoded.Header.Equal(block.Header) {
			t.Fatalf("TestBlockEncoding: decoded block differs: %s", spew.Sdump(decoded))
		}
		if !bytes.Equal(BlockToBytes(decoded), encoded) {
			t.Fatalf("TestBlockEncoding: re-encoding differs for %s", block.Content.Type())
		}
	}

	var buf bytes.Buffer
	if err := SerializeLegacyBlock(&buf, blocks[1], true); err == nil {
		t.Fatalf("TestBlockEncoding: expected the legacy encoding to refuse shard headers")
	}

	bad := BlockToBytes(blocks[0])
	bad[HeaderSize] = 7
	if _, err := DeserializeBlock(bytes.NewReader(bad)); !IsMalformedError(err) {
		t.Fatalf("TestBlockEncoding: expected a malformed error for an unknown content tag, got %v", err)
	}
}
