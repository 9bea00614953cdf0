// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
)

// ErrorCode identifies a kind of script error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrMalformedPush is returned when a data push opcode tries to push
	// more bytes than are left in the script.
	ErrMalformedPush ErrorCode = iota

	// ErrNotPushOnly is returned when a signature script contains opcodes
	// other than data pushes.
	ErrNotPushOnly

	// ErrNonStandardScript is returned when the locking script is not of a
	// class the evaluator knows how to satisfy.
	ErrNonStandardScript

	// ErrInvalidStackOperation is returned when the unlocking data doesn't
	// have the shape the locking script requires.
	ErrInvalidStackOperation

	// ErrPubKeyHashMismatch is returned when the supplied public key
	// doesn't hash to the committed public key hash.
	ErrPubKeyHashMismatch

	// ErrPubKeyFormat is returned when a public key can't be parsed.
	ErrPubKeyFormat

	// ErrSigFormat is returned when a signature can't be parsed.
	ErrSigFormat

	// ErrInvalidSigHashType is returned when a signature carries an
	// undefined signature hash type.
	ErrInvalidSigHashType

	// ErrSignatureVerification is returned when a signature doesn't verify
	// against its public key and signature hash.
	ErrSignatureVerification

	// ErrWitnessUnexpected is returned when witness data accompanies a
	// script that isn't a witness program.
	ErrWitnessUnexpected

	// ErrWitnessMalleated is returned when the signature script of a
	// witness program spend isn't empty.
	ErrWitnessMalleated

	// numErrorCodes is the maximum error code number used in tests. This
	// entry MUST be the last entry in the enum.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrMalformedPush:         "ErrMalformedPush",
	ErrNotPushOnly:           "ErrNotPushOnly",
	ErrNonStandardScript:     "ErrNonStandardScript",
	ErrInvalidStackOperation: "ErrInvalidStackOperation",
	ErrPubKeyHashMismatch:    "ErrPubKeyHashMismatch",
	ErrPubKeyFormat:          "ErrPubKeyFormat",
	ErrSigFormat:             "ErrSigFormat",
	ErrInvalidSigHashType:    "ErrInvalidSigHashType",
	ErrSignatureVerification: "ErrSignatureVerification",
	ErrWitnessUnexpected:     "ErrWitnessUnexpected",
	ErrWitnessMalleated:      "ErrWitnessMalleated",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error identifies a script-related error. It is used to indicate three
// classes of errors:
//  1. Script execution failures due to violating one of the many requirements
//     imposed by the script engine or evaluating to false
//  2. Improper API usage by callers
//  3. Internal consistency check failures
//
// The caller can use type assertions on the returned errors to access the
// ErrorCode field to ascertain the specific reason for the error. As an
// additional convenience, the caller may make use of the IsErrorCode function
// to check for a specific error code.
type Error struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// scriptError creates an Error given a set of arguments.
func scriptError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether or not the provided error is a script error
// with the provided error code.
func IsErrorCode(err error, c ErrorCode) bool {
	serr, ok := err.(Error)
	return ok && serr.ErrorCode == c
}
