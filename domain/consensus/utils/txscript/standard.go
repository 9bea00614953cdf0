// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// ScriptClass is an enumeration for the list of standard types of script.
type ScriptClass byte

// Classes of script payment known about in the blockchain.
const (
	NonStandardTy         ScriptClass = iota // None of the recognized forms.
	TrueTy                                   // Anyone can spend.
	PubKeyTy                                 // Pay pubkey.
	PubKeyHashTy                             // Pay pubkey hash.
	WitnessV0PubKeyHashTy                    // Pay witness pubkey hash.
	SchnorrPubKeyTy                          // Pay x-only Schnorr pubkey.
	NullDataTy                               // Empty data-only (provably prunable).
)

// scriptClassToName houses the human-readable strings which describe each
// script class.
var scriptClassToName = []string{
	NonStandardTy:         "nonstandard",
	TrueTy:                "true",
	PubKeyTy:              "pubkey",
	PubKeyHashTy:          "pubkeyhash",
	WitnessV0PubKeyHashTy: "witness_v0_keyhash",
	SchnorrPubKeyTy:       "schnorrpubkey",
	NullDataTy:            "nulldata",
}

// String implements the Stringer interface by returning the name of
// the enum script class. If the enum is invalid then "Invalid" will be
// returned.
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

// GetScriptClass returns the class of the script passed.
//
// NonStandardTy will be returned when the script does not parse.
func GetScriptClass(script []byte) ScriptClass {
	switch {
	case len(script) == 1 && script[0] == OpTrue:
		return TrueTy

	// OP_DATA_33/65 <pubkey> OP_CHECKSIG
	case (len(script) == 35 && script[0] == OpData33 || len(script) == 67 && script[0] == OpData65) &&
		script[len(script)-1] == OpCheckSig:
		return PubKeyTy

	// OP_DUP OP_HASH160 OP_DATA_20 <hash> OP_EQUALVERIFY OP_CHECKSIG
	case len(script) == 25 && script[0] == OpDup && script[1] == OpHash160 &&
		script[2] == OpData20 && script[23] == OpEqualVerify && script[24] == OpCheckSig:
		return PubKeyHashTy

	// OP_0 OP_DATA_20 <hash>
	case len(script) == 22 && script[0] == Op0 && script[1] == OpData20:
		return WitnessV0PubKeyHashTy

	// OP_DATA_32 <x-only pubkey> OP_CHECKSIG
	case len(script) == 34 && script[0] == OpData32 && script[33] == OpCheckSig:
		return SchnorrPubKeyTy

	case len(script) > 0 && script[0] == OpReturn:
		if pops, err := parseScript(script[1:]); err == nil && isPushOnly(pops) {
			return NullDataTy
		}
	}
	return NonStandardTy
}

// PayToPubKeyScript creates a script that pays to the given ECDSA public key.
func PayToPubKeyScript(serializedPubKey []byte) []byte {
	script := append([]byte{byte(len(serializedPubKey))}, serializedPubKey...)
	return append(script, OpCheckSig)
}

// PayToPubKeyHashScript creates a script that pays to a 20-byte public key
// hash.
func PayToPubKeyHashScript(pubKeyHash []byte) []byte {
	script := []byte{OpDup, OpHash160, OpData20}
	script = append(script, pubKeyHash...)
	return append(script, OpEqualVerify, OpCheckSig)
}

// PayToWitnessPubKeyHashScript creates a version 0 witness program paying
// to a 20-byte public key hash.
func PayToWitnessPubKeyHashScript(pubKeyHash []byte) []byte {
	return append([]byte{Op0, OpData20}, pubKeyHash...)
}

// PayToSchnorrPubKeyScript creates a script that pays to a 32-byte x-only
// Schnorr public key.
func PayToSchnorrPubKeyScript(serializedPubKey []byte) []byte {
	script := append([]byte{OpData32}, serializedPubKey...)
	return append(script, OpCheckSig)
}

// PushDataScript creates a push-only script pushing each item with the
// smallest fitting push opcode.
func PushDataScript(items ...[]byte) []byte {
	var script []byte
	for _, item := range items {
		switch {
		case len(item) <= OpData75:
			script = append(script, byte(len(item)))
		case len(item) <= 0xff:
			script = append(script, OpPushData1, byte(len(item)))
		default:
			script = append(script, OpPushData2, byte(len(item)), byte(len(item)>>8))
		}
		script = append(script, item...)
	}
	return script
}
