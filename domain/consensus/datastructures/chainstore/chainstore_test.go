package chainstore

import (
	"io/ioutil"
	"os"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/multiset"
	"github.com/shardledger/shardd/domain/consensus/utils/testutils"
	"github.com/shardledger/shardd/domain/consensus/utils/utxo"
	"github.com/shardledger/shardd/domain/dagconfig"
)

func prepareStoreForTest(t *testing.T, testName string) (cs *ChainStore, path string, teardownFunc func()) {
	path, err := ioutil.TempDir("", testName)
	if err != nil {
		t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
	}
	cs, err = Open(path, dagconfig.RegressionNetParams.GenesisBlock)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly failed: %+v", testName, err)
	}
	teardownFunc = func() {
		cs.Close()
		os.RemoveAll(path)
	}
	return cs, path, teardownFunc
}

func TestOpenGenesis(t *testing.T) {
	cs, _, teardownFunc := prepareStoreForTest(t, "TestOpenGenesis")
	defer teardownFunc()

	genesis := dagconfig.RegressionNetParams.GenesisBlock
	tipHash, height, err := cs.BestBlock()
	if err != nil {
		t.Fatalf("TestOpenGenesis: BestBlock: %+v", err)
	}
	if height != 0 || *tipHash != *consensushashing.HeaderHash(genesis.Header) {
		t.Fatalf("TestOpenGenesis: unexpected tip %s at height %d", tipHash, height)
	}

	header, found, err := cs.HeaderByHash(tipHash)
	if err != nil || !found {
		t.Fatalf("TestOpenGenesis: HeaderByHash: found: %t, err: %+v", found, err)
	}
	if !reflect.DeepEqual(header, genesis.Header) {
		t.Fatalf("TestOpenGenesis: unexpected genesis header %s", spew.Sdump(header))
	}

	genesisOutpoint := testutils.Outpoint(genesis.Content.Transactions()[0], 0)
	_, found, err = cs.Output(genesisOutpoint)
	if err != nil || found {
		t.Fatalf("TestOpenGenesis: genesis outputs must not be spendable (found: %t, err: %+v)", found, err)
	}
	if *cs.UTXOCommitment() != *multiset.New().Hash() {
		t.Fatalf("TestOpenGenesis: expected the empty UTXO commitment")
	}
}

func TestCommitBlock(t *testing.T) {
	cs, path, teardownFunc := prepareStoreForTest(t, "TestCommitBlock")
	defer teardownFunc()

	params := &dagconfig.RegressionNetParams
	coinbase1 := testutils.CoinbaseTransaction(1, params.CalcBlockSubsidy(1))
	block1 := testutils.BuildTransactionsBlock(params.GenesisBlock.Header, coinbase1)
	err := cs.CommitBlock(block1, 1)
	if err != nil {
		t.Fatalf("TestCommitBlock: CommitBlock 1: %+v", err)
	}

	coinbase2 := testutils.CoinbaseTransaction(2, params.CalcBlockSubsidy(2))
	first := testutils.SpendTransaction([]uint64{1000, 2000}, testutils.Outpoint(coinbase1, 0))
	second := testutils.SpendTransaction([]uint64{500}, testutils.Outpoint(first, 0))
	block2 := testutils.BuildTransactionsBlock(block1.Header, coinbase2, first, second)
	err = cs.CommitBlock(block2, 2)
	if err != nil {
		t.Fatalf("TestCommitBlock: CommitBlock 2: %+v", err)
	}

	expectedMetas := []struct {
		outpoint *externalapi.DomainOutpoint
		meta     externalapi.OutputMeta
	}{
		{testutils.Outpoint(coinbase1, 0), externalapi.OutputMeta{BlockHeight: 1, IsCoinbase: true, IsSpent: true}},
		{testutils.Outpoint(coinbase2, 0), externalapi.OutputMeta{BlockHeight: 2, IsCoinbase: true}},
		{testutils.Outpoint(first, 0), externalapi.OutputMeta{BlockHeight: 2, IsSpent: true}},
		{testutils.Outpoint(first, 1), externalapi.OutputMeta{BlockHeight: 2}},
		{testutils.Outpoint(second, 0), externalapi.OutputMeta{BlockHeight: 2}},
	}
	for _, expected := range expectedMetas {
		meta, found, err := cs.OutputMeta(expected.outpoint)
		if err != nil || !found {
			t.Fatalf("TestCommitBlock: OutputMeta %s: found: %t, err: %+v", expected.outpoint, found, err)
		}
		if *meta != expected.meta {
			t.Fatalf("TestCommitBlock: output %s: expected %+v, got %+v", expected.outpoint, expected.meta, *meta)
		}
	}

	expectedSet := multiset.New()
	for _, expected := range expectedMetas {
		if expected.meta.IsSpent {
			continue
		}
		output, _, err := cs.Output(expected.outpoint)
		if err != nil {
			t.Fatalf("TestCommitBlock: Output: %+v", err)
		}
		meta := expected.meta
		expectedSet.Add(utxo.SerializeUTXO(expected.outpoint, output, &meta))
	}
	if *cs.UTXOCommitment() != *expectedSet.Hash() {
		t.Fatalf("TestCommitBlock: expected commitment %s, got %s", expectedSet.Hash(), cs.UTXOCommitment())
	}
	err = cs.VerifyUTXOCommitment()
	if err != nil {
		t.Fatalf("TestCommitBlock: VerifyUTXOCommitment: %+v", err)
	}

	// The state survives reopening.
	commitment := cs.UTXOCommitment()
	err = cs.Close()
	if err != nil {
		t.Fatalf("TestCommitBlock: Close: %+v", err)
	}
	cs, err = Open(path, params.GenesisBlock)
	if err != nil {
		t.Fatalf("TestCommitBlock: reopening: %+v", err)
	}
	tipHash, height, err := cs.BestBlock()
	if err != nil {
		t.Fatalf("TestCommitBlock: BestBlock: %+v", err)
	}
	if height != 2 || *tipHash != *consensushashing.HeaderHash(block2.Header) {
		t.Fatalf("TestCommitBlock: unexpected tip %s at height %d after reopening", tipHash, height)
	}
	if *cs.UTXOCommitment() != *commitment {
		t.Fatalf("TestCommitBlock: commitment changed after reopening")
	}
	cs.Close()

	_, err = Open(path, dagconfig.BeaconParams.GenesisBlock)
	if err == nil {
		t.Fatalf("TestCommitBlock: expected opening with another genesis to fail")
	}
}

func TestCommitBlockFailures(t *testing.T) {
	cs, _, teardownFunc := prepareStoreForTest(t, "TestCommitBlockFailures")
	defer teardownFunc()

	params := &dagconfig.RegressionNetParams
	genesisHeader := params.GenesisBlock.Header
	coinbase1 := testutils.CoinbaseTransaction(1, 1)
	missing := &externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{1}}

	tests := []struct {
		name   string
		block  *externalapi.DomainBlock
		height uint64
	}{
		{
			name:   "wrong height",
			block:  testutils.BuildTransactionsBlock(genesisHeader, coinbase1),
			height: 2,
		},
		{
			name:   "wrong parent",
			block:  testutils.BuildTransactionsBlock(foreignHeader(), coinbase1),
			height: 1,
		},
		{
			name: "missing output",
			block: testutils.BuildTransactionsBlock(genesisHeader, coinbase1,
				testutils.SpendTransaction([]uint64{1}, missing)),
			height: 1,
		},
		{
			name: "double spend",
			block: testutils.BuildTransactionsBlock(genesisHeader, coinbase1,
				testutils.SpendTransaction([]uint64{1}, testutils.Outpoint(coinbase1, 0)),
				testutils.SpendTransaction([]uint64{1}, testutils.Outpoint(coinbase1, 0))),
			height: 1,
		},
	}

	commitment := cs.UTXOCommitment()
	for _, test := range tests {
		err := cs.CommitBlock(test.block, test.height)
		if err == nil {
			t.Fatalf("TestCommitBlockFailures: %s: expected an error", test.name)
		}
		_, height, err := cs.BestBlock()
		if err != nil {
			t.Fatalf("TestCommitBlockFailures: %s: BestBlock: %+v", test.name, err)
		}
		if height != 0 || *cs.UTXOCommitment() != *commitment {
			t.Fatalf("TestCommitBlockFailures: %s: a failed commit changed the state", test.name)
		}
		_, found, err := cs.Output(testutils.Outpoint(coinbase1, 0))
		if err != nil || found {
			t.Fatalf("TestCommitBlockFailures: %s: a failed commit wrote outputs", test.name)
		}
	}
}

func foreignHeader() *externalapi.DomainBlockHeader {
	return &externalapi.DomainBlockHeader{Version: 4, Timestamp: 1}
}

func TestCommitShardHeadersBlock(t *testing.T) {
	path, err := ioutil.TempDir("", "TestCommitShardHeadersBlock")
	if err != nil {
		t.Fatalf("TestCommitShardHeadersBlock: TempDir: %s", err)
	}
	defer os.RemoveAll(path)

	params := &dagconfig.BeaconParams
	cs, err := Open(path, params.GenesisBlock)
	if err != nil {
		t.Fatalf("TestCommitShardHeadersBlock: Open: %+v", err)
	}
	defer cs.Close()

	block := testutils.BuildBlock(params.GenesisBlock.Header, externalapi.NewShardHeadersContent(
		[]*externalapi.ShardHeader{{Version: 1, ShardID: 0, BlockHashes: []externalapi.DomainHash{{1}}}}))
	err = cs.CommitBlock(block, 1)
	if err != nil {
		t.Fatalf("TestCommitShardHeadersBlock: CommitBlock: %+v", err)
	}
	header, found, err := cs.HeaderByHeight(1)
	if err != nil || !found || !reflect.DeepEqual(header, block.Header) {
		t.Fatalf("TestCommitShardHeadersBlock: unexpected header at height 1: %s", spew.Sdump(header))
	}
	if *cs.UTXOCommitment() != *multiset.New().Hash() {
		t.Fatalf("TestCommitShardHeadersBlock: shard headers changed the UTXO commitment")
	}
}
