package txscript

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// maxCoinbaseHeightLen is the longest push a serialized coinbase height may
// use.
const maxCoinbaseHeightLen = 8

// CoinbaseScript returns a coinbase signature script that starts with the
// serialized block height, followed by the given extra nonce.
func CoinbaseScript(height uint64, extraNonce uint64) []byte {
	var script []byte
	switch {
	case height == 0:
		script = []byte{Op0}
	case height <= 16:
		script = []byte{byte(OpTrue - 1 + height)}
	default:
		script = PushDataScript(scriptNumBytes(height))
	}
	extraNonceBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(extraNonceBytes, extraNonce)
	return append(script, PushDataScript(extraNonceBytes)...)
}

// scriptNumBytes returns the minimal little-endian encoding of a positive
// script number.
func scriptNumBytes(n uint64) []byte {
	var result []byte
	for n > 0 {
		result = append(result, byte(n))
		n >>= 8
	}
	// The most significant bit is the sign bit.
	if result[len(result)-1]&0x80 != 0 {
		result = append(result, 0x00)
	}
	return result
}

// ExtractCoinbaseHeight attempts to extract the height of the block from the
// signature script of a coinbase transaction.
func ExtractCoinbaseHeight(sigScript []byte) (uint64, error) {
	if len(sigScript) < 1 {
		return 0, errors.New("the coinbase signature script must start with the " +
			"length of the serialized block height")
	}

	// Detect the case when the block height is a small integer encoded with
	// a single byte.
	opcode := sigScript[0]
	if opcode == Op0 {
		return 0, nil
	}
	if opcode >= OpTrue && opcode <= Op16 {
		return uint64(opcode - (OpTrue - 1)), nil
	}

	// Otherwise, the opcode is the length of the following bytes which
	// encode in the block height.
	serializedLen := int(sigScript[0])
	if serializedLen > maxCoinbaseHeightLen || len(sigScript[1:]) < serializedLen {
		return 0, errors.Errorf("the coinbase signature script must start with the "+
			"serialized block height, got a push of %d bytes", serializedLen)
	}

	serializedHeightBytes := make([]byte, 8)
	copy(serializedHeightBytes, sigScript[1:serializedLen+1])
	return binary.LittleEndian.Uint64(serializedHeightBytes), nil
}
