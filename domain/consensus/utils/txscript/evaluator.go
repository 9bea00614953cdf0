package txscript

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	"github.com/kaspanet/go-secp256k1"
	"github.com/shardledger/shardd/domain/consensus/model"
	"golang.org/x/crypto/ripemd160"
)

// Evaluator is a model.ScriptEvaluator that authorizes spends of the
// standard script classes: anyone-can-spend, pay-to-pubkey,
// pay-to-pubkey-hash, version 0 pay-to-witness-pubkey-hash and
// pay-to-Schnorr-pubkey. Any other locking script fails verification.
type Evaluator struct{}

// NewEvaluator returns a new Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

var _ model.ScriptEvaluator = (*Evaluator)(nil)

// Verify implements model.ScriptEvaluator.
func (e *Evaluator) Verify(scriptPublicKey []byte, signatureScript []byte,
	sighashContext *model.SighashContext) error {

	input := sighashContext.Transaction.Inputs[sighashContext.InputIndex]
	class := GetScriptClass(scriptPublicKey)

	if class == WitnessV0PubKeyHashTy {
		if sighashContext.Flags&model.ScriptVerifyWitness == 0 {
			// Before witness activation, a witness program is satisfied by
			// any push-only signature script.
			_, err := pushedData(signatureScript)
			return err
		}
		return e.verifyWitnessPubKeyHash(scriptPublicKey, signatureScript, input.Witness, sighashContext)
	}

	if len(input.Witness) > 0 && sighashContext.Flags&model.ScriptVerifyWitness != 0 {
		return scriptError(ErrWitnessUnexpected,
			fmt.Sprintf("witness data supplied for a %s script", class))
	}

	pushes, err := pushedData(signatureScript)
	if err != nil {
		return err
	}

	switch class {
	case TrueTy:
		return nil

	case PubKeyTy:
		if len(pushes) != 1 {
			return scriptError(ErrInvalidStackOperation,
				fmt.Sprintf("pay-to-pubkey expects 1 push, got %d", len(pushes)))
		}
		pubKey := scriptPublicKey[1 : len(scriptPublicKey)-1]
		return verifyECDSA(pushes[0], pubKey, scriptPublicKey, sighashContext)

	case PubKeyHashTy:
		if len(pushes) != 2 {
			return scriptError(ErrInvalidStackOperation,
				fmt.Sprintf("pay-to-pubkey-hash expects 2 pushes, got %d", len(pushes)))
		}
		signature, pubKey := pushes[0], pushes[1]
		if !bytes.Equal(Hash160(pubKey), scriptPublicKey[3:23]) {
			return scriptError(ErrPubKeyHashMismatch, "public key doesn't match the committed hash")
		}
		return verifyECDSA(signature, pubKey, scriptPublicKey, sighashContext)

	case SchnorrPubKeyTy:
		if len(pushes) != 1 {
			return scriptError(ErrInvalidStackOperation,
				fmt.Sprintf("pay-to-schnorr-pubkey expects 1 push, got %d", len(pushes)))
		}
		return verifySchnorr(pushes[0], scriptPublicKey[1:33], scriptPublicKey, sighashContext)
	}

	return scriptError(ErrNonStandardScript, fmt.Sprintf("can't evaluate a %s script", class))
}

func (e *Evaluator) verifyWitnessPubKeyHash(scriptPublicKey []byte, signatureScript []byte, witness [][]byte,
	sighashContext *model.SighashContext) error {

	if len(signatureScript) != 0 {
		return scriptError(ErrWitnessMalleated, "witness program spends must have an empty signature script")
	}
	if len(witness) != 2 {
		return scriptError(ErrInvalidStackOperation,
			fmt.Sprintf("pay-to-witness-pubkey-hash expects 2 witness items, got %d", len(witness)))
	}
	signature, pubKey := witness[0], witness[1]
	if len(pubKey) != btcec.PubKeyBytesLenCompressed {
		return scriptError(ErrPubKeyFormat, "witness public keys must be compressed")
	}
	pubKeyHash := scriptPublicKey[2:22]
	if !bytes.Equal(Hash160(pubKey), pubKeyHash) {
		return scriptError(ErrPubKeyHashMismatch, "public key doesn't match the witness program")
	}

	hashType, rawSignature, err := splitHashType(signature)
	if err != nil {
		return err
	}
	scriptCode := PayToPubKeyHashScript(pubKeyHash)
	sigHash, err := CalcWitnessSignatureHash(scriptCode, hashType, sighashContext.Transaction,
		sighashContext.InputIndex, sighashContext.Amount)
	if err != nil {
		return err
	}
	return checkECDSA(rawSignature, pubKey, sigHash[:], sighashContext.Flags|model.ScriptVerifyStrictDER)
}

func splitHashType(signature []byte) (SigHashType, []byte, error) {
	if len(signature) < 1 {
		return 0, nil, scriptError(ErrSigFormat, "empty signature")
	}
	hashType := SigHashType(signature[len(signature)-1])
	if !hashType.isStandard() {
		return 0, nil, scriptError(ErrInvalidSigHashType, fmt.Sprintf("invalid hash type 0x%x", uint32(hashType)))
	}
	return hashType, signature[:len(signature)-1], nil
}

func verifyECDSA(signature, pubKey, subScript []byte, sighashContext *model.SighashContext) error {
	hashType, rawSignature, err := splitHashType(signature)
	if err != nil {
		return err
	}
	sigHash, err := CalcSignatureHash(subScript, hashType, sighashContext.Transaction, sighashContext.InputIndex)
	if err != nil {
		return err
	}
	return checkECDSA(rawSignature, pubKey, sigHash[:], sighashContext.Flags)
}

func checkECDSA(rawSignature, pubKey, sigHash []byte, flags model.ScriptFlags) error {
	parsedPubKey, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return scriptError(ErrPubKeyFormat, fmt.Sprintf("invalid public key: %s", err))
	}

	var parsedSignature *btcec.Signature
	if flags&model.ScriptVerifyStrictDER != 0 {
		parsedSignature, err = btcec.ParseDERSignature(rawSignature, btcec.S256())
	} else {
		parsedSignature, err = btcec.ParseSignature(rawSignature, btcec.S256())
	}
	if err != nil {
		return scriptError(ErrSigFormat, fmt.Sprintf("invalid signature: %s", err))
	}

	if !parsedSignature.Verify(sigHash, parsedPubKey) {
		return scriptError(ErrSignatureVerification, "signature doesn't verify")
	}
	return nil
}

func verifySchnorr(signature, pubKey, subScript []byte, sighashContext *model.SighashContext) error {
	hashType, rawSignature, err := splitHashType(signature)
	if err != nil {
		return err
	}
	parsedPubKey, err := secp256k1.DeserializeSchnorrPubKey(pubKey)
	if err != nil {
		return scriptError(ErrPubKeyFormat, fmt.Sprintf("invalid schnorr public key: %s", err))
	}
	parsedSignature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(rawSignature)
	if err != nil {
		return scriptError(ErrSigFormat, fmt.Sprintf("invalid schnorr signature: %s", err))
	}
	sigHash, err := CalcSignatureHash(subScript, hashType, sighashContext.Transaction, sighashContext.InputIndex)
	if err != nil {
		return err
	}
	secpHash := secp256k1.Hash(*sigHash)
	if !parsedPubKey.SchnorrVerify(&secpHash, parsedSignature) {
		return scriptError(ErrSignatureVerification, "schnorr signature doesn't verify")
	}
	return nil
}

// Hash160 calculates the hash ripemd160(sha256(b)).
func Hash160(buf []byte) []byte {
	sha := sha256.Sum256(buf)
	hasher := ripemd160.New()
	_, _ = hasher.Write(sha[:])
	return hasher.Sum(nil)
}
