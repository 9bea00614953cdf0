package blockacceptor

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/outputoverlay"
	"github.com/shardledger/shardd/domain/consensus/processes/shardheadervalidator"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/constants"
	"github.com/shardledger/shardd/domain/consensus/utils/testutils"
	"github.com/shardledger/shardd/domain/consensus/utils/txscript"
	"github.com/shardledger/shardd/domain/dagconfig"
)

var committedOutpoint = &externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{7}, Index: 2}

const committedValue = 1000

func newTestStore(params *dagconfig.Params) *testutils.MemoryStore {
	store := testutils.NewMemoryStore(params.GenesisBlock)
	store.AddOutput(committedOutpoint, &externalapi.DomainTransactionOutput{
		Value:           committedValue,
		ScriptPublicKey: testutils.OpTrueScript(),
	}, 0, false)
	return store
}

func checkBlock(t *testing.T, params *dagconfig.Params, block *externalapi.DomainBlock) error {
	store := newTestStore(params)
	context := &Context{Height: 1, Deployments: params}
	if block.Content.Type() == externalapi.ContentTypeTransactions {
		overlay, err := outputoverlay.New(store, block.Content.Transactions(), context.Height)
		if err != nil {
			t.Fatalf("outputoverlay.New: %+v", err)
		}
		context.Overlay = overlay
	}
	return New(params, shardheadervalidator.New(params.ShardCount)).Check(block, context)
}

func validBlock(params *dagconfig.Params) *externalapi.DomainBlock {
	const fee = 100
	coinbase := testutils.CoinbaseTransaction(1, params.CalcBlockSubsidy(1)+fee)
	spend := testutils.SpendTransaction([]uint64{committedValue - fee}, committedOutpoint)
	return testutils.BuildTransactionsBlock(params.GenesisBlock.Header, coinbase, spend)
}

func TestCheckValidBlock(t *testing.T) {
	params := &dagconfig.RegressionNetParams
	block := validBlock(params)
	err := checkBlock(t, params, block)
	if err != nil {
		t.Fatalf("TestCheckValidBlock: %+v\n%s", err, spew.Sdump(block))
	}
}

func TestCheckBlockFailures(t *testing.T) {
	tests := []struct {
		name     string
		params   func() *dagconfig.Params
		block    func(params *dagconfig.Params) *externalapi.DomainBlock
		expected error
	}{
		{
			name: "no transactions",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				return testutils.BuildTransactionsBlock(params.GenesisBlock.Header)
			},
			expected: ruleerrors.ErrNoTransactions,
		},
		{
			name: "bad merkle root",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				block := validBlock(params)
				block.Header.MerkleRoot[0] ^= 0xff
				return block
			},
			expected: ruleerrors.ErrBadMerkleRoot,
		},
		{
			name: "body mutated after commitment",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				block := validBlock(params)
				block.Content.Transactions()[1].Outputs[0].Value--
				return block
			},
			expected: ruleerrors.ErrBadMerkleRoot,
		},
		{
			name: "first transaction not a coinbase",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				spend := testutils.SpendTransaction([]uint64{1}, committedOutpoint)
				return testutils.BuildTransactionsBlock(params.GenesisBlock.Header, spend)
			},
			expected: ruleerrors.ErrFirstTxNotCoinbase,
		},
		{
			name: "second coinbase",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				return testutils.BuildTransactionsBlock(params.GenesisBlock.Header,
					testutils.CoinbaseTransaction(1, 1), testutils.CoinbaseTransaction(2, 1))
			},
			expected: ruleerrors.ErrMultipleCoinbases,
		},
		{
			name: "coinbase script too short",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				coinbase := testutils.CoinbaseTransaction(1, 1)
				coinbase.Inputs[0].SignatureScript = []byte{txscript.OpTrue}
				return testutils.BuildTransactionsBlock(params.GenesisBlock.Header, coinbase)
			},
			expected: ruleerrors.ErrBadCoinbaseScriptLen,
		},
		{
			name: "duplicate transaction",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				spend := testutils.SpendTransaction([]uint64{1}, committedOutpoint)
				return testutils.BuildTransactionsBlock(params.GenesisBlock.Header,
					testutils.CoinbaseTransaction(1, 1), spend, spend.Clone())
			},
			expected: ruleerrors.ErrDuplicateTx,
		},
		{
			name: "wrong coinbase height",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				return testutils.BuildTransactionsBlock(params.GenesisBlock.Header, testutils.CoinbaseTransaction(2, 1))
			},
			expected: ruleerrors.ErrBadCoinbaseHeight,
		},
		{
			name: "coinbase pays more than subsidy and fees",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				block := validBlock(params)
				block.Content.Transactions()[0].Outputs[0].Value++
				testutils.UpdateMerkleRoot(block)
				return block
			},
			expected: ruleerrors.ErrBadCoinbaseValue,
		},
		{
			name: "witness without commitment",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				block := validBlock(params)
				block.Content.Transactions()[1].Inputs[0].Witness = [][]byte{{1, 2, 3}}
				testutils.UpdateMerkleRoot(block)
				return block
			},
			expected: ruleerrors.ErrUnexpectedWitness,
		},
		{
			name: "witness before activation",
			params: func() *dagconfig.Params {
				params := dagconfig.RegressionNetParams
				params.DeploymentHeights[model.DeploymentSegwit] = 10
				return &params
			},
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				return witnessBlock(params, false)
			},
			expected: ruleerrors.ErrUnexpectedWitness,
		},
		{
			name: "wrong witness commitment",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				return witnessBlock(params, true)
			},
			expected: ruleerrors.ErrBadWitnessCommitment,
		},
		{
			name: "block too big",
			params: func() *dagconfig.Params {
				params := dagconfig.RegressionNetParams
				params.MaxBlockBaseSize = 100
				return &params
			},
			block:    validBlock,
			expected: ruleerrors.ErrBlockTooBig,
		},
		{
			name: "block too heavy",
			params: func() *dagconfig.Params {
				params := dagconfig.RegressionNetParams
				params.MaxBlockWeight = 400
				return &params
			},
			block:    validBlock,
			expected: ruleerrors.ErrBlockWeightTooHigh,
		},
		{
			name: "too many sigops",
			params: func() *dagconfig.Params {
				params := dagconfig.RegressionNetParams
				params.MaxBlockSigOpsCost = 7
				return &params
			},
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				block := validBlock(params)
				block.Content.Transactions()[1].Outputs[0].ScriptPublicKey = []byte{txscript.OpCheckSig, txscript.OpCheckSig}
				testutils.UpdateMerkleRoot(block)
				return block
			},
			expected: ruleerrors.ErrTooManySigOps,
		},
		{
			name: "shard headers on a shard chain",
			block: func(params *dagconfig.Params) *externalapi.DomainBlock {
				return testutils.BuildBlock(params.GenesisBlock.Header, externalapi.NewShardHeadersContent(nil))
			},
			expected: ruleerrors.ErrWrongContentType,
		},
	}

	for _, test := range tests {
		params := &dagconfig.RegressionNetParams
		if test.params != nil {
			params = test.params()
		}
		block := test.block(params)
		err := checkBlock(t, params, block)
		if !errors.Is(err, test.expected) {
			t.Errorf("TestCheckBlockFailures: %s: expected %v, got %v", test.name, test.expected, err)
			continue
		}
		var invalidBlock ruleerrors.ErrInvalidBlock
		if !errors.As(err, &invalidBlock) {
			t.Errorf("TestCheckBlockFailures: %s: expected an ErrInvalidBlock, got %T", test.name, err)
		}
	}
}

// witnessBlock returns a block whose second transaction carries witness
// data, committed to by the coinbase.
func witnessBlock(params *dagconfig.Params, corruptCommitment bool) *externalapi.DomainBlock {
	block := validBlock(params)
	transactions := block.Content.Transactions()
	transactions[1].Inputs[0].Witness = [][]byte{{1, 2, 3}}

	reserved := make([]byte, constants.WitnessReservedValueLen)
	coinbase := transactions[0]
	coinbase.Inputs[0].Witness = [][]byte{reserved}
	commitment := CalculateWitnessCommitment(transactions, reserved)
	if corruptCommitment {
		commitment[0] ^= 1
	}
	script := append(constants.WitnessCommitmentHeader[:], commitment[:]...)
	coinbase.Outputs = append(coinbase.Outputs, &externalapi.DomainTransactionOutput{ScriptPublicKey: script})

	testutils.UpdateMerkleRoot(block)
	return block
}

func TestCheckWitnessCommitment(t *testing.T) {
	params := &dagconfig.RegressionNetParams
	block := witnessBlock(params, false)
	err := checkBlock(t, params, block)
	if err != nil {
		t.Fatalf("TestCheckWitnessCommitment: %+v", err)
	}
}

func beaconParams() *dagconfig.Params {
	params := dagconfig.BeaconParams
	return &params
}

func TestCheckShardHeaders(t *testing.T) {
	params := beaconParams()
	genesisHeader := params.GenesisBlock.Header

	tests := []struct {
		name         string
		shardHeaders []*externalapi.ShardHeader
		expected     error
	}{
		{
			name: "valid",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: 0, BlockHashes: []externalapi.DomainHash{{1}}},
				{Version: 1, ShardID: 1, BlockHashes: []externalapi.DomainHash{{2}, {3}}},
			},
		},
		{
			name: "duplicate shard",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: 1, BlockHashes: []externalapi.DomainHash{{1}}},
				{Version: 1, ShardID: 1, BlockHashes: []externalapi.DomainHash{{2}}},
			},
			expected: ruleerrors.ErrDuplicateShardHeader,
		},
		{
			name: "empty shard header",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: 2},
			},
			expected: ruleerrors.ErrEmptyShardHeader,
		},
		{
			name: "unknown shard",
			shardHeaders: []*externalapi.ShardHeader{
				{Version: 1, ShardID: params.ShardCount, BlockHashes: []externalapi.DomainHash{{1}}},
			},
			expected: ruleerrors.ErrInvalidShardHeaders,
		},
	}

	for _, test := range tests {
		block := testutils.BuildBlock(genesisHeader, externalapi.NewShardHeadersContent(test.shardHeaders))
		err := checkBlock(t, params, block)
		if test.expected == nil {
			if err != nil {
				t.Errorf("TestCheckShardHeaders: %s: unexpected error %+v", test.name, err)
			}
			continue
		}
		if !errors.Is(err, test.expected) {
			t.Errorf("TestCheckShardHeaders: %s: expected %v, got %v", test.name, test.expected, err)
		}
	}
}

func TestTransactionsOnBeaconChain(t *testing.T) {
	params := beaconParams()
	block := testutils.BuildTransactionsBlock(params.GenesisBlock.Header, testutils.CoinbaseTransaction(1, 1))
	err := New(params, shardheadervalidator.New(params.ShardCount)).Check(block, &Context{Height: 1, Deployments: params})
	if !errors.Is(err, ruleerrors.ErrWrongContentType) {
		t.Fatalf("TestTransactionsOnBeaconChain: expected ErrWrongContentType, got %v", err)
	}
}
