// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// These constants are the values of the opcodes the evaluator and the sigop
// counter need to recognize.
const (
	Op0                   = 0x00 // 0
	OpData1               = 0x01 // 1
	OpData20              = 0x14 // 20
	OpData32              = 0x20 // 32
	OpData33              = 0x21 // 33
	OpData65              = 0x41 // 65
	OpData75              = 0x4b // 75
	OpPushData1           = 0x4c // 76
	OpPushData2           = 0x4d // 77
	OpPushData4           = 0x4e // 78
	Op1Negate             = 0x4f // 79
	OpTrue                = 0x51 // 81 - AKA Op1
	Op16                  = 0x60 // 96
	OpReturn              = 0x6a // 106
	OpDup                 = 0x76 // 118
	OpEqual               = 0x87 // 135
	OpEqualVerify         = 0x88 // 136
	OpHash160             = 0xa9 // 169
	OpCodeSeparator       = 0xab // 171
	OpCheckSig            = 0xac // 172
	OpCheckSigVerify      = 0xad // 173
	OpCheckMultiSig       = 0xae // 174
	OpCheckMultiSigVerify = 0xaf // 175
)

// MaxPubKeysPerMultiSig is the maximum number of public keys a multisig
// may carry, and therefore the sigop cost of an unbounded multisig.
const MaxPubKeysPerMultiSig = 20

// parsedOpcode is an opcode together with the data it pushes, if any.
type parsedOpcode struct {
	opcode byte
	data   []byte
}

// isPushOnly returns whether every opcode of the parsed script only pushes
// data.
func isPushOnly(pops []parsedOpcode) bool {
	for _, pop := range pops {
		if pop.opcode > Op16 {
			return false
		}
	}
	return true
}
