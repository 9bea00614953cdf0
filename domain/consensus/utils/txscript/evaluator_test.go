package txscript

import (
	"math"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/kaspanet/go-secp256k1"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

func spendingTransaction() *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Version: 1,
		Inputs: []*externalapi.DomainTransactionInput{
			{
				PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{1}, Index: 0},
				Sequence:         math.MaxUint32,
			},
			{
				PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{2}, Index: 3},
				Sequence:         math.MaxUint32,
			},
		},
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: 1000, ScriptPublicKey: []byte{OpTrue}},
		},
	}
}

func TestEvaluatorECDSA(t *testing.T) {
	privKey, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		t.Fatalf("TestEvaluatorECDSA: %+v", err)
	}
	compressed := privKey.PubKey().SerializeCompressed()
	evaluator := NewEvaluator()

	tests := []struct {
		name            string
		scriptPublicKey []byte
		sign            func(tx *externalapi.DomainTransaction, script []byte) ([]byte, error)
	}{
		{
			name:            "pay-to-pubkey",
			scriptPublicKey: PayToPubKeyScript(compressed),
			sign: func(tx *externalapi.DomainTransaction, script []byte) ([]byte, error) {
				sig, err := RawTxInSignature(tx, 1, script, SigHashAll, privKey)
				return PushDataScript(sig), err
			},
		},
		{
			name:            "pay-to-pubkey-hash",
			scriptPublicKey: PayToPubKeyHashScript(Hash160(compressed)),
			sign: func(tx *externalapi.DomainTransaction, script []byte) ([]byte, error) {
				return SignatureScript(tx, 1, script, SigHashAll, privKey, true)
			},
		},
		{
			name:            "pay-to-pubkey-hash single anyonecanpay",
			scriptPublicKey: PayToPubKeyHashScript(Hash160(compressed)),
			sign: func(tx *externalapi.DomainTransaction, script []byte) ([]byte, error) {
				return SignatureScript(tx, 1, script, SigHashSingle|SigHashAnyOneCanPay, privKey, true)
			},
		},
	}

	for _, test := range tests {
		tx := spendingTransaction()
		// SigHashSingle on input 1 needs an output 1 to commit to
		tx.Outputs = append(tx.Outputs, &externalapi.DomainTransactionOutput{Value: 500, ScriptPublicKey: []byte{OpTrue}})
		signatureScript, err := test.sign(tx, test.scriptPublicKey)
		if err != nil {
			t.Fatalf("%s: signing failed: %+v", test.name, err)
		}
		tx.Inputs[1].SignatureScript = signatureScript

		context := &model.SighashContext{Transaction: tx, InputIndex: 1, Flags: model.ScriptVerifyStrictDER}
		err = evaluator.Verify(test.scriptPublicKey, signatureScript, context)
		if err != nil {
			t.Fatalf("%s: expected a valid spend, got %+v", test.name, err)
		}

		// Signing input 1 doesn't authorize input 0
		context.InputIndex = 0
		err = evaluator.Verify(test.scriptPublicKey, signatureScript, context)
		if !IsErrorCode(err, ErrSignatureVerification) {
			t.Fatalf("%s: expected ErrSignatureVerification for the wrong input, got %v", test.name, err)
		}

		context.InputIndex = 1
		tx.LockTime++
		err = evaluator.Verify(test.scriptPublicKey, signatureScript, context)
		if !IsErrorCode(err, ErrSignatureVerification) {
			t.Fatalf("%s: expected ErrSignatureVerification after mutating the transaction, got %v", test.name, err)
		}
	}
}

func TestEvaluatorPubKeyHashMismatch(t *testing.T) {
	privKey, _ := btcec.NewPrivateKey(btcec.S256())
	otherKey, _ := btcec.NewPrivateKey(btcec.S256())
	script := PayToPubKeyHashScript(Hash160(otherKey.PubKey().SerializeCompressed()))

	tx := spendingTransaction()
	signatureScript, err := SignatureScript(tx, 0, script, SigHashAll, privKey, true)
	if err != nil {
		t.Fatalf("TestEvaluatorPubKeyHashMismatch: %+v", err)
	}
	err = NewEvaluator().Verify(script, signatureScript, &model.SighashContext{Transaction: tx, InputIndex: 0})
	if !IsErrorCode(err, ErrPubKeyHashMismatch) {
		t.Fatalf("TestEvaluatorPubKeyHashMismatch: expected ErrPubKeyHashMismatch, got %v", err)
	}
}

func TestEvaluatorWitnessPubKeyHash(t *testing.T) {
	privKey, _ := btcec.NewPrivateKey(btcec.S256())
	script := PayToWitnessPubKeyHashScript(Hash160(privKey.PubKey().SerializeCompressed()))
	const amount = 123456

	tx := spendingTransaction()
	witness, err := WitnessSignature(tx, 0, amount, SigHashAll, privKey)
	if err != nil {
		t.Fatalf("TestEvaluatorWitnessPubKeyHash: %+v", err)
	}
	tx.Inputs[0].Witness = witness

	context := &model.SighashContext{Transaction: tx, InputIndex: 0, Amount: amount, Flags: model.ScriptVerifyWitness}
	if err := NewEvaluator().Verify(script, nil, context); err != nil {
		t.Fatalf("TestEvaluatorWitnessPubKeyHash: expected a valid spend, got %+v", err)
	}

	// The signature commits to the spent amount
	context.Amount = amount + 1
	if err := NewEvaluator().Verify(script, nil, context); !IsErrorCode(err, ErrSignatureVerification) {
		t.Fatalf("TestEvaluatorWitnessPubKeyHash: expected ErrSignatureVerification, got %v", err)
	}

	context.Amount = amount
	if err := NewEvaluator().Verify(script, []byte{OpTrue}, context); !IsErrorCode(err, ErrWitnessMalleated) {
		t.Fatalf("TestEvaluatorWitnessPubKeyHash: expected ErrWitnessMalleated, got %v", err)
	}

	// Before witness activation, the program is anyone-can-spend
	tx.Inputs[0].Witness = nil
	context.Flags = 0
	if err := NewEvaluator().Verify(script, nil, context); err != nil {
		t.Fatalf("TestEvaluatorWitnessPubKeyHash: expected a pre-activation spend to pass, got %+v", err)
	}
}

func TestEvaluatorSchnorr(t *testing.T) {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("TestEvaluatorSchnorr: %+v", err)
	}
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		t.Fatalf("TestEvaluatorSchnorr: %+v", err)
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		t.Fatalf("TestEvaluatorSchnorr: %+v", err)
	}
	script := PayToSchnorrPubKeyScript(serializedPublicKey[:])
	if GetScriptClass(script) != SchnorrPubKeyTy {
		t.Fatalf("TestEvaluatorSchnorr: unexpected class %s", GetScriptClass(script))
	}

	tx := spendingTransaction()
	signatureScript, err := SchnorrSignatureScript(tx, 0, script, SigHashAll, keyPair)
	if err != nil {
		t.Fatalf("TestEvaluatorSchnorr: %+v", err)
	}
	context := &model.SighashContext{Transaction: tx, InputIndex: 0}
	if err := NewEvaluator().Verify(script, signatureScript, context); err != nil {
		t.Fatalf("TestEvaluatorSchnorr: expected a valid spend, got %+v", err)
	}
	tx.Outputs[0].Value++
	if err := NewEvaluator().Verify(script, signatureScript, context); !IsErrorCode(err, ErrSignatureVerification) {
		t.Fatalf("TestEvaluatorSchnorr: expected ErrSignatureVerification, got %v", err)
	}
}

func TestEvaluatorNonStandard(t *testing.T) {
	tx := spendingTransaction()
	context := &model.SighashContext{Transaction: tx, InputIndex: 0}
	tests := []struct {
		name            string
		scriptPublicKey []byte
		signatureScript []byte
		code            ErrorCode
	}{
		{"nonstandard", []byte{OpDup, OpDup}, nil, ErrNonStandardScript},
		{"not push only", []byte{OpTrue}, []byte{OpDup}, ErrNotPushOnly},
		{"malformed push", []byte{OpTrue}, []byte{OpData20, 0x01}, ErrMalformedPush},
		{"nulldata", []byte{OpReturn, 0x01, 0x02}, nil, ErrNonStandardScript},
	}
	for _, test := range tests {
		err := NewEvaluator().Verify(test.scriptPublicKey, test.signatureScript, context)
		if !IsErrorCode(err, test.code) {
			t.Errorf("%s: expected %s, got %v", test.name, test.code, err)
		}
	}
	if err := NewEvaluator().Verify([]byte{OpTrue}, nil, context); err != nil {
		t.Errorf("anyone-can-spend: unexpected error %v", err)
	}
}

func TestGetSigOpCount(t *testing.T) {
	tests := []struct {
		name     string
		script   []byte
		expected int
	}{
		{"p2pkh", PayToPubKeyHashScript(make([]byte, 20)), 1},
		{"multisig", []byte{OpTrue, OpCheckMultiSig}, MaxPubKeysPerMultiSig},
		{"pushed opcodes don't count", PushDataScript([]byte{OpCheckSig, OpCheckSig}), 0},
		{"counts up to a parse failure", []byte{OpCheckSig, OpCheckSigVerify, OpPushData1}, 2},
	}
	for _, test := range tests {
		if count := GetSigOpCount(test.script); count != test.expected {
			t.Errorf("TestGetSigOpCount: %s: got %d, want %d", test.name, count, test.expected)
		}
	}
}

func TestCalcSignatureHashSingleBug(t *testing.T) {
	tx := spendingTransaction()
	hash, err := CalcSignatureHash([]byte{OpTrue}, SigHashSingle, tx, 1)
	if err != nil {
		t.Fatalf("TestCalcSignatureHashSingleBug: %+v", err)
	}
	var expected externalapi.DomainHash
	expected[0] = 1
	if *hash != expected {
		t.Fatalf("TestCalcSignatureHashSingleBug: expected the value one, got %s", hash)
	}
}

func TestCoinbaseHeightRoundTrip(t *testing.T) {
	for _, height := range []uint64{0, 1, 16, 17, 127, 128, 255, 256, 227_836, 1 << 40} {
		script := CoinbaseScript(height, 7)
		extracted, err := ExtractCoinbaseHeight(script)
		if err != nil {
			t.Fatalf("TestCoinbaseHeightRoundTrip: height %d: %+v", height, err)
		}
		if extracted != height {
			t.Fatalf("TestCoinbaseHeightRoundTrip: got %d, want %d", extracted, height)
		}
	}

	// Block 227836's coinbase starts with 03fc7903
	extracted, err := ExtractCoinbaseHeight([]byte{0x03, 0xfc, 0x79, 0x03, 0x00})
	if err != nil || extracted != 227_836 {
		t.Fatalf("TestCoinbaseHeightRoundTrip: got %d, %v", extracted, err)
	}

	if _, err := ExtractCoinbaseHeight([]byte{0x04, 0x01}); err == nil {
		t.Fatalf("TestCoinbaseHeightRoundTrip: expected a truncated push to fail")
	}
}
