// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/btcsuite/btcd/btcec"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// RawTxInSignature returns the serialized ECDSA signature for the input idx
// of the given transaction, with hashType appended to it.
func RawTxInSignature(tx *externalapi.DomainTransaction, idx int, subScript []byte,
	hashType SigHashType, key *btcec.PrivateKey) ([]byte, error) {

	hash, err := CalcSignatureHash(subScript, hashType, tx, idx)
	if err != nil {
		return nil, err
	}
	signature, err := key.Sign(hash[:])
	if err != nil {
		return nil, errors.Errorf("cannot sign tx input: %s", err)
	}
	return append(signature.Serialize(), byte(hashType)), nil
}

// SignatureScript creates an input signature script for tx to spend coins
// sent from a previous pay-to-pubkey-hash output to the owner of privKey.
func SignatureScript(tx *externalapi.DomainTransaction, idx int, subScript []byte,
	hashType SigHashType, privKey *btcec.PrivateKey, compress bool) ([]byte, error) {

	sig, err := RawTxInSignature(tx, idx, subScript, hashType, privKey)
	if err != nil {
		return nil, err
	}

	pk := privKey.PubKey()
	var pkData []byte
	if compress {
		pkData = pk.SerializeCompressed()
	} else {
		pkData = pk.SerializeUncompressed()
	}
	return PushDataScript(sig, pkData), nil
}

// WitnessSignature creates the witness stack that spends a version 0
// pay-to-witness-pubkey-hash output of the given amount owned by privKey.
func WitnessSignature(tx *externalapi.DomainTransaction, idx int, amount uint64,
	hashType SigHashType, privKey *btcec.PrivateKey) ([][]byte, error) {

	pkData := privKey.PubKey().SerializeCompressed()
	scriptCode := PayToPubKeyHashScript(Hash160(pkData))
	hash, err := CalcWitnessSignatureHash(scriptCode, hashType, tx, idx, amount)
	if err != nil {
		return nil, err
	}
	signature, err := privKey.Sign(hash[:])
	if err != nil {
		return nil, errors.Errorf("cannot sign tx input: %s", err)
	}
	return [][]byte{append(signature.Serialize(), byte(hashType)), pkData}, nil
}

// SchnorrSignatureScript creates an input signature script spending a
// pay-to-Schnorr-pubkey output owned by keyPair.
func SchnorrSignatureScript(tx *externalapi.DomainTransaction, idx int, subScript []byte,
	hashType SigHashType, keyPair *secp256k1.SchnorrKeyPair) ([]byte, error) {

	hash, err := CalcSignatureHash(subScript, hashType, tx, idx)
	if err != nil {
		return nil, err
	}
	secpHash := secp256k1.Hash(*hash)
	signature, err := keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return nil, errors.Errorf("cannot sign tx input: %s", err)
	}
	return PushDataScript(append(signature.Serialize()[:], byte(hashType))), nil
}
