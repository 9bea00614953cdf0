package model

import (
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// ScriptFlags selects the script rules in force for an evaluation.
type ScriptFlags uint32

// Script flags.
const (
	// ScriptVerifyStrictDER rejects signatures that aren't strict DER.
	ScriptVerifyStrictDER ScriptFlags = 1 << iota

	// ScriptVerifyWitness evaluates witness programs instead of treating
	// them as anyone-can-spend.
	ScriptVerifyWitness
)

// SighashContext carries what a signature hash commits to besides the
// scripts themselves: the spending transaction, the index of the input
// being verified, and the value of the output it spends.
type SighashContext struct {
	Transaction *externalapi.DomainTransaction
	InputIndex  int
	Amount      uint64
	Flags       ScriptFlags
}

// ScriptEvaluator decides whether unlocking data satisfies a locking
// script. A nil error means the spend is authorized.
type ScriptEvaluator interface {
	Verify(scriptPublicKey []byte, signatureScript []byte, sighashContext *SighashContext) error
}
