// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"
	"fmt"
)

// parseScript preparses the script in bytes into a list of parsedOpcodes.
// Opcodes parsed before a malformed push are returned together with the
// error.
func parseScript(script []byte) ([]parsedOpcode, error) {
	pops := make([]parsedOpcode, 0, len(script))
	for i := 0; i < len(script); {
		opcode := script[i]
		i++

		var dataLength int
		switch {
		case opcode >= OpData1 && opcode <= OpData75:
			dataLength = int(opcode)
		case opcode == OpPushData1:
			if len(script)-i < 1 {
				return pops, scriptError(ErrMalformedPush, "OP_PUSHDATA1 without a length")
			}
			dataLength = int(script[i])
			i++
		case opcode == OpPushData2:
			if len(script)-i < 2 {
				return pops, scriptError(ErrMalformedPush, "OP_PUSHDATA2 without a length")
			}
			dataLength = int(binary.LittleEndian.Uint16(script[i:]))
			i += 2
		case opcode == OpPushData4:
			if len(script)-i < 4 {
				return pops, scriptError(ErrMalformedPush, "OP_PUSHDATA4 without a length")
			}
			dataLength = int(binary.LittleEndian.Uint32(script[i:]))
			i += 4
		}

		if dataLength < 0 || dataLength > len(script)-i {
			return pops, scriptError(ErrMalformedPush,
				fmt.Sprintf("opcode 0x%02x pushes %d bytes, but the script only has %d left",
					opcode, dataLength, len(script)-i))
		}
		pops = append(pops, parsedOpcode{opcode: opcode, data: script[i : i+dataLength]})
		i += dataLength
	}
	return pops, nil
}

// unparseScript reverses parseScript, re-encoding each push with the
// opcode it was originally written with.
func unparseScript(pops []parsedOpcode) []byte {
	script := make([]byte, 0, len(pops))
	for _, pop := range pops {
		script = append(script, pop.opcode)
		switch pop.opcode {
		case OpPushData1:
			script = append(script, byte(len(pop.data)))
		case OpPushData2:
			var length [2]byte
			binary.LittleEndian.PutUint16(length[:], uint16(len(pop.data)))
			script = append(script, length[:]...)
		case OpPushData4:
			var length [4]byte
			binary.LittleEndian.PutUint32(length[:], uint32(len(pop.data)))
			script = append(script, length[:]...)
		}
		script = append(script, pop.data...)
	}
	return script
}

// removeOpcode returns the script without any occurrence of opcode.
func removeOpcode(pops []parsedOpcode, opcode byte) []parsedOpcode {
	filtered := make([]parsedOpcode, 0, len(pops))
	for _, pop := range pops {
		if pop.opcode != opcode {
			filtered = append(filtered, pop)
		}
	}
	return filtered
}

// pushedData returns the data pushed by a push-only script.
func pushedData(script []byte) ([][]byte, error) {
	pops, err := parseScript(script)
	if err != nil {
		return nil, err
	}
	if !isPushOnly(pops) {
		return nil, scriptError(ErrNotPushOnly, "signature script is not push only")
	}
	data := make([][]byte, len(pops))
	for i, pop := range pops {
		data[i] = pop.data
	}
	return data, nil
}

// GetSigOpCount provides a quick count of the number of signature operations
// in a script. A CHECKSIG operation counts for 1, and a CHECK_MULTISIG for 20.
// If the script fails to parse, then the count up to the point of failure is
// returned.
func GetSigOpCount(script []byte) int {
	// Don't check error since parseScript returns the parsed-up-to-error
	// list of pops.
	pops, _ := parseScript(script)
	numSigOps := 0
	for _, pop := range pops {
		switch pop.opcode {
		case OpCheckSig, OpCheckSigVerify:
			numSigOps++
		case OpCheckMultiSig, OpCheckMultiSigVerify:
			numSigOps += MaxPubKeysPerMultiSig
		}
	}
	return numSigOps
}

// GetWitnessSigOpCount returns the number of signature operations a spend
// of the given witness program performs. Only pay-to-witness-pubkey-hash
// programs are recognized, and they perform exactly one.
func GetWitnessSigOpCount(scriptPublicKey []byte, witness [][]byte) int {
	if GetScriptClass(scriptPublicKey) == WitnessV0PubKeyHashTy && len(witness) > 0 {
		return 1
	}
	return 0
}
