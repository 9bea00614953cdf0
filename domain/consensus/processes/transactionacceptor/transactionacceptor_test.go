package transactionacceptor

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/outputoverlay"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/constants"
	"github.com/shardledger/shardd/domain/consensus/utils/testutils"
	"github.com/shardledger/shardd/domain/consensus/utils/txscript"
	"github.com/shardledger/shardd/domain/dagconfig"
)

type evaluatorFunc func(scriptPublicKey []byte, signatureScript []byte, sighashContext *model.SighashContext) error

func (f evaluatorFunc) Verify(scriptPublicKey []byte, signatureScript []byte, sighashContext *model.SighashContext) error {
	return f(scriptPublicKey, signatureScript, sighashContext)
}

var acceptAll = evaluatorFunc(func([]byte, []byte, *model.SighashContext) error { return nil })

var (
	regularOutpoint  = &externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{1}, Index: 0}
	coinbaseOutpoint = &externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{2}, Index: 0}
)

const (
	regularHeight  = 10
	coinbaseHeight = 50

	// regularMedianTime is the past median time relative locks on
	// regularOutpoint count from.
	regularMedianTime = 1_599_000_000
	medianTimePast    = 1_599_999_000
)

// checkAt builds the overlay of a block made of a coinbase followed by tx
// at height and checks tx.
func checkAt(t *testing.T, height uint64, level model.VerificationLevel, evaluator model.ScriptEvaluator,
	tx *externalapi.DomainTransaction) error {

	params := &dagconfig.RegressionNetParams
	store := testutils.NewMemoryStore(params.GenesisBlock)
	store.AddOutput(regularOutpoint, &externalapi.DomainTransactionOutput{Value: 1000, ScriptPublicKey: testutils.OpTrueScript()}, regularHeight, false)
	store.AddOutput(coinbaseOutpoint, &externalapi.DomainTransactionOutput{Value: 5000, ScriptPublicKey: testutils.OpTrueScript()}, coinbaseHeight, true)

	transactions := []*externalapi.DomainTransaction{testutils.CoinbaseTransaction(height, 1), tx}
	overlay, err := outputoverlay.New(store, transactions, height)
	if err != nil {
		t.Fatalf("outputoverlay.New: %+v", err)
	}

	context := &Context{
		Params:          params,
		Level:           level,
		ScriptEvaluator: evaluator,
		Overlay:         overlay,
		Height:          height,
		BlockTimestamp:  1_600_000_000,
		MedianTimePast:  medianTimePast,
		Deployments:     params,
		InputMedianTimes: map[uint64]int64{
			regularHeight:  regularMedianTime,
			coinbaseHeight: regularMedianTime + 40*600,
		},
	}
	return New(context, 1, tx).Check()
}

func TestTransactionAcceptorFailures(t *testing.T) {
	tests := []struct {
		name     string
		tx       func() *externalapi.DomainTransaction
		expected error
	}{
		{
			name: "no inputs",
			tx: func() *externalapi.DomainTransaction {
				return testutils.SpendTransaction([]uint64{1})
			},
			expected: ruleerrors.ErrNoTxInputs,
		},
		{
			name: "no outputs",
			tx: func() *externalapi.DomainTransaction {
				return testutils.SpendTransaction(nil, regularOutpoint)
			},
			expected: ruleerrors.ErrNoTxOutputs,
		},
		{
			name: "output above the max",
			tx: func() *externalapi.DomainTransaction {
				return testutils.SpendTransaction([]uint64{constants.MaxSatoshi + 1}, regularOutpoint)
			},
			expected: ruleerrors.ErrBadTxOutValue,
		},
		{
			name: "outputs sum above the max",
			tx: func() *externalapi.DomainTransaction {
				return testutils.SpendTransaction([]uint64{constants.MaxSatoshi, 1}, regularOutpoint)
			},
			expected: ruleerrors.ErrBadTxOutValue,
		},
		{
			name: "duplicate inputs",
			tx: func() *externalapi.DomainTransaction {
				return testutils.SpendTransaction([]uint64{1}, regularOutpoint, regularOutpoint)
			},
			expected: ruleerrors.ErrDuplicateTxInputs,
		},
		{
			name: "coinbase outside of index 0",
			tx: func() *externalapi.DomainTransaction {
				return testutils.CoinbaseTransaction(200, 1)
			},
			expected: ruleerrors.ErrBadTxInput,
		},
		{
			name: "unfinalized by height",
			tx: func() *externalapi.DomainTransaction {
				tx := testutils.SpendTransaction([]uint64{1}, regularOutpoint)
				tx.LockTime = 200
				tx.Inputs[0].Sequence = 0
				return tx
			},
			expected: ruleerrors.ErrUnfinalizedTx,
		},
		{
			name: "unfinalized by median time past",
			tx: func() *externalapi.DomainTransaction {
				tx := testutils.SpendTransaction([]uint64{1}, regularOutpoint)
				tx.LockTime = medianTimePast + 500
				tx.Inputs[0].Sequence = 0
				return tx
			},
			expected: ruleerrors.ErrUnfinalizedTx,
		},
		{
			name: "spend too high",
			tx: func() *externalapi.DomainTransaction {
				return testutils.SpendTransaction([]uint64{1001}, regularOutpoint)
			},
			expected: ruleerrors.ErrSpendTooHigh,
		},
		{
			name: "immature coinbase",
			tx: func() *externalapi.DomainTransaction {
				return testutils.SpendTransaction([]uint64{1}, coinbaseOutpoint)
			},
			expected: ruleerrors.ErrImmatureSpend,
		},
	}

	for _, test := range tests {
		err := checkAt(t, 100, model.VerificationLevelFull, acceptAll, test.tx())
		if !errors.Is(err, test.expected) {
			t.Errorf("TestTransactionAcceptorFailures: %s: expected %v, got %v", test.name, test.expected, err)
			continue
		}
		var invalidTransaction ruleerrors.ErrInvalidTransaction
		if !errors.As(err, &invalidTransaction) || invalidTransaction.Index != 1 {
			t.Errorf("TestTransactionAcceptorFailures: %s: expected an ErrInvalidTransaction at index 1, got %v",
				test.name, err)
		}
	}
}

func TestTransactionAcceptorMissingInput(t *testing.T) {
	missing := &externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{9}, Index: 3}
	err := checkAt(t, 100, model.VerificationLevelFull, acceptAll, testutils.SpendTransaction([]uint64{1}, missing))
	var missingTxOut ruleerrors.ErrMissingTxOut
	if !errors.As(err, &missingTxOut) {
		t.Fatalf("TestTransactionAcceptorMissingInput: expected ErrMissingTxOut, got %v", err)
	}
	if len(missingTxOut.MissingOutpoints) != 1 || *missingTxOut.MissingOutpoints[0] != *missing {
		t.Fatalf("TestTransactionAcceptorMissingInput: unexpected missing outpoints %v", missingTxOut.MissingOutpoints)
	}
}

func TestCoinbaseMaturityBoundary(t *testing.T) {
	maturity := dagconfig.RegressionNetParams.CoinbaseMaturity
	tx := testutils.SpendTransaction([]uint64{1}, coinbaseOutpoint)

	err := checkAt(t, coinbaseHeight+maturity-1, model.VerificationLevelFull, acceptAll, tx)
	if !errors.Is(err, ruleerrors.ErrImmatureSpend) {
		t.Fatalf("TestCoinbaseMaturityBoundary: expected ErrImmatureSpend one block early, got %v", err)
	}

	err = checkAt(t, coinbaseHeight+maturity, model.VerificationLevelFull, acceptAll, tx)
	if err != nil {
		t.Fatalf("TestCoinbaseMaturityBoundary: expected the spend to be mature, got %+v", err)
	}
}

func TestSequenceLocks(t *testing.T) {
	const height = 100
	// The largest relative lock in 512 second units that has passed
	// between regularMedianTime and medianTimePast.
	const metTimeLock = (medianTimePast - regularMedianTime) >> constants.SequenceLockTimeGranularity

	tests := []struct {
		name      string
		version   int32
		sequence  uint32
		expectErr bool
	}{
		{"height lock met", 2, height - regularHeight, false},
		{"height lock unmet", 2, height - regularHeight + 1, true},
		{"time lock met", 2, constants.SequenceLockTimeIsSeconds | metTimeLock, false},
		{"time lock unmet", 2, constants.SequenceLockTimeIsSeconds | (metTimeLock + 1), true},
		{"disabled", 2, constants.SequenceLockTimeDisabled | constants.SequenceLockTimeMask, false},
		{"version 1 has no relative locks", 1, constants.SequenceLockTimeMask, false},
	}
	for _, test := range tests {
		tx := testutils.SpendTransaction([]uint64{1}, regularOutpoint)
		tx.Version = test.version
		tx.Inputs[0].Sequence = test.sequence

		err := checkAt(t, height, model.VerificationLevelFull, acceptAll, tx)
		if test.expectErr && !errors.Is(err, ruleerrors.ErrUnfinalizedTx) {
			t.Errorf("TestSequenceLocks: %s: expected ErrUnfinalizedTx, got %v", test.name, err)
		}
		if !test.expectErr && err != nil {
			t.Errorf("TestSequenceLocks: %s: unexpected error %+v", test.name, err)
		}
	}
}

func TestTransactionSigOpCostLimit(t *testing.T) {
	params := &dagconfig.RegressionNetParams
	maxSigOps := int(params.MaxBlockSigOpsCost/constants.MaxTxSigOpsCostDivisor) / constants.WitnessScaleFactor

	spendWithSigOps := func(sigOps int) *externalapi.DomainTransaction {
		tx := testutils.SpendTransaction([]uint64{1}, regularOutpoint)
		tx.Outputs[0].ScriptPublicKey = bytes.Repeat([]byte{txscript.OpCheckSig}, sigOps)
		return tx
	}

	err := checkAt(t, 100, model.VerificationLevelFull, acceptAll, spendWithSigOps(maxSigOps))
	if err != nil {
		t.Fatalf("TestTransactionSigOpCostLimit: expected a transaction at the limit to pass, got %+v", err)
	}
	err = checkAt(t, 100, model.VerificationLevelFull, acceptAll, spendWithSigOps(maxSigOps+1))
	if !errors.Is(err, ruleerrors.ErrTxTooManySigOps) {
		t.Fatalf("TestTransactionSigOpCostLimit: expected ErrTxTooManySigOps, got %v", err)
	}
}

func TestVerificationLevels(t *testing.T) {
	rejectAll := evaluatorFunc(func(_ []byte, _ []byte, sighashContext *model.SighashContext) error {
		return errors.Errorf("signature of input %d is invalid", sighashContext.InputIndex)
	})
	tx := testutils.SpendTransaction([]uint64{900}, regularOutpoint)

	err := checkAt(t, 100, model.VerificationLevelFull, rejectAll, tx)
	if !errors.Is(err, ruleerrors.ErrScriptValidation) {
		t.Fatalf("TestVerificationLevels: expected ErrScriptValidation, got %v", err)
	}

	err = checkAt(t, 100, model.VerificationLevelNoScripts, rejectAll, tx)
	if err != nil {
		t.Fatalf("TestVerificationLevels: scripts must not run without full verification, got %+v", err)
	}

	var seenFlags model.ScriptFlags
	var seenAmount uint64
	recordingEvaluator := evaluatorFunc(func(_ []byte, _ []byte, sighashContext *model.SighashContext) error {
		seenFlags = sighashContext.Flags
		seenAmount = sighashContext.Amount
		return nil
	})
	err = checkAt(t, 100, model.VerificationLevelFull, recordingEvaluator, tx)
	if err != nil {
		t.Fatalf("TestVerificationLevels: %+v", err)
	}
	if seenFlags != model.ScriptVerifyStrictDER|model.ScriptVerifyWitness || seenAmount != 1000 {
		t.Fatalf("TestVerificationLevels: unexpected sighash context: flags %b, amount %d", seenFlags, seenAmount)
	}
}

func TestIsFinalizedTransaction(t *testing.T) {
	tx := testutils.SpendTransaction([]uint64{1}, regularOutpoint)
	tx.Inputs[0].Sequence = 0

	tests := []struct {
		lockTime  uint32
		height    uint64
		blockTime int64
		expected  bool
	}{
		{lockTime: 0, height: 1, blockTime: 0, expected: true},
		{lockTime: 100, height: 100, blockTime: 0, expected: false},
		{lockTime: 100, height: 101, blockTime: 0, expected: true},
		{lockTime: constants.LockTimeThreshold, height: 1 << 40, blockTime: constants.LockTimeThreshold, expected: false},
		{lockTime: constants.LockTimeThreshold, height: 1, blockTime: constants.LockTimeThreshold + 1, expected: true},
	}
	for _, test := range tests {
		tx.LockTime = test.lockTime
		if result := IsFinalizedTransaction(tx, test.height, test.blockTime); result != test.expected {
			t.Errorf("TestIsFinalizedTransaction: lock time %d at height %d and time %d: got %t",
				test.lockTime, test.height, test.blockTime, result)
		}
	}

	tx.LockTime = 1000
	tx.Inputs[0].Sequence = constants.MaxTxInSequenceNum
	if !IsFinalizedTransaction(tx, 1, 0) {
		t.Errorf("TestIsFinalizedTransaction: sequence-final inputs must finalize the transaction")
	}
}
