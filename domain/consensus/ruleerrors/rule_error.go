package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// ErrMalformed marks structurally impossible input, such as a variant
// specific accessor invoked on the wrong content. It is raised as a panic
// and never returned as a validation verdict.
var ErrMalformed = externalapi.ErrMalformed

// Header rule violations.
var (
	// ErrPrevBlockMismatch indicates the header doesn't reference the
	// block it is being appended to.
	ErrPrevBlockMismatch = newRuleError("ErrPrevBlockMismatch")

	// ErrBlockVersionTooOld indicates the block version is below the floor
	// set by the deployments active at its height.
	ErrBlockVersionTooOld = newRuleError("ErrBlockVersionTooOld")

	// ErrTimeTooOld indicates the time is not after the median time of
	// the last several blocks.
	ErrTimeTooOld = newRuleError("ErrTimeTooOld")

	// ErrTimeTooNew indicates the time is too far in the future as compared
	// the current time.
	ErrTimeTooNew = newRuleError("ErrTimeTooNew")

	// ErrUnexpectedDifficulty indicates specified bits do not align with
	// the expected value because it doesn't match the value the retarget
	// rule computes.
	ErrUnexpectedDifficulty = newRuleError("ErrUnexpectedDifficulty")

	// ErrNegativeTarget indicates the decoded target is zero or negative.
	ErrNegativeTarget = newRuleError("ErrNegativeTarget")

	// ErrTargetTooHigh indicates the decoded target is easier than the
	// network's proof-of-work limit.
	ErrTargetTooHigh = newRuleError("ErrTargetTooHigh")

	// ErrHighHash indicates the block does not hash to a value which is
	// lower than the required target difficultly.
	ErrHighHash = newRuleError("ErrHighHash")
)

// Block rule violations.
var (
	// ErrWrongContentType indicates the block's content variant doesn't
	// match the kind of chain it is being appended to.
	ErrWrongContentType = newRuleError("ErrWrongContentType")

	// ErrBadMerkleRoot indicates the calculated merkle root does not match
	// the expected value.
	ErrBadMerkleRoot = newRuleError("ErrBadMerkleRoot")

	// ErrNoTransactions indicates the block does not have a least one
	// transaction. A valid shard block must have at least the coinbase
	// transaction.
	ErrNoTransactions = newRuleError("ErrNoTransactions")

	// ErrBlockTooBig indicates the serialized block size without witness
	// data exceeds the maximum allowed size.
	ErrBlockTooBig = newRuleError("ErrBlockTooBig")

	// ErrBlockWeightTooHigh indicates the block weight exceeds the maximum
	// allowed weight.
	ErrBlockWeightTooHigh = newRuleError("ErrBlockWeightTooHigh")

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase = newRuleError("ErrFirstTxNotCoinbase")

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases = newRuleError("ErrMultipleCoinbases")

	// ErrBadCoinbaseScriptLen indicates the length of the signature script
	// for a coinbase transaction is not within the valid range.
	ErrBadCoinbaseScriptLen = newRuleError("ErrBadCoinbaseScriptLen")

	// ErrBadCoinbaseValue indicates the amount of a coinbase value does
	// not match the expected value of the subsidy plus the sum of all fees.
	ErrBadCoinbaseValue = newRuleError("ErrBadCoinbaseValue")

	// ErrBadCoinbaseHeight indicates the coinbase script doesn't begin with
	// the serialized block height.
	ErrBadCoinbaseHeight = newRuleError("ErrBadCoinbaseHeight")

	// ErrDuplicateTx indicates a block contains an identical transaction
	// (or at least two transactions which hash to the same value).
	ErrDuplicateTx = newRuleError("ErrDuplicateTx")

	// ErrTooManySigOps indicates the total signature operation cost of the
	// block exceeds the maximum allowed limit.
	ErrTooManySigOps = newRuleError("ErrTooManySigOps")

	// ErrBadWitnessCommitment indicates the coinbase witness commitment
	// doesn't match the witness merkle root of the block.
	ErrBadWitnessCommitment = newRuleError("ErrBadWitnessCommitment")

	// ErrUnexpectedWitness indicates a transaction carries witness data
	// while the block commits to none.
	ErrUnexpectedWitness = newRuleError("ErrUnexpectedWitness")

	// ErrDuplicateShardHeader indicates two shard headers of a beacon block
	// are for the same shard.
	ErrDuplicateShardHeader = newRuleError("ErrDuplicateShardHeader")

	// ErrEmptyShardHeader indicates a shard header that extends its shard
	// by no blocks.
	ErrEmptyShardHeader = newRuleError("ErrEmptyShardHeader")

	// ErrInvalidShardHeaders indicates the shard headers are inconsistent
	// with the shard chains they extend.
	ErrInvalidShardHeaders = newRuleError("ErrInvalidShardHeaders")
)

// Transaction rule violations.
var (
	// ErrNoTxInputs indicates a transaction does not have any inputs. A
	// valid transaction must have at least one input.
	ErrNoTxInputs = newRuleError("ErrNoTxInputs")

	// ErrNoTxOutputs indicates a transaction does not have any outputs.
	ErrNoTxOutputs = newRuleError("ErrNoTxOutputs")

	// ErrTxWeightTooHigh indicates the weight of a transaction exceeds the
	// maximum allowed limit.
	ErrTxWeightTooHigh = newRuleError("ErrTxWeightTooHigh")

	// ErrBadTxOutValue indicates an output value for a transaction is
	// invalid in some way such as being out of range.
	ErrBadTxOutValue = newRuleError("ErrBadTxOutValue")

	// ErrDuplicateTxInputs indicates a transaction references the same
	// input more than once.
	ErrDuplicateTxInputs = newRuleError("ErrDuplicateTxInputs")

	// ErrBadTxInput indicates a transaction input is invalid in some way
	// such as referencing a previous transaction outpoint which is out of
	// range or not referencing one at all.
	ErrBadTxInput = newRuleError("ErrBadTxInput")

	// ErrUnfinalizedTx indicates a transaction has not been finalized.
	// A valid block may only contain finalized transactions.
	ErrUnfinalizedTx = newRuleError("ErrUnfinalizedTx")

	// ErrDoubleSpend indicates a transaction spends an output that a
	// committed block already spent.
	ErrDoubleSpend = newRuleError("ErrDoubleSpend")

	// ErrDoubleSpendInSameBlock indicates a transaction spends an output
	// that an earlier transaction of the same block already spent.
	ErrDoubleSpendInSameBlock = newRuleError("ErrDoubleSpendInSameBlock")

	// ErrImmatureSpend indicates a transaction is attempting to spend a
	// coinbase that has not yet reached the required maturity.
	ErrImmatureSpend = newRuleError("ErrImmatureSpend")

	// ErrBadTxInputValue indicates the referenced outputs of a transaction
	// sum to a value that is out of range.
	ErrBadTxInputValue = newRuleError("ErrBadTxInputValue")

	// ErrSpendTooHigh indicates a transaction is attempting to spend more
	// value than the sum of all of its inputs.
	ErrSpendTooHigh = newRuleError("ErrSpendTooHigh")

	// ErrTxTooManySigOps indicates the signature operation cost of a
	// transaction exceeds the per-transaction limit.
	ErrTxTooManySigOps = newRuleError("ErrTxTooManySigOps")

	// ErrScriptValidation indicates the result of executing transaction
	// script failed.
	ErrScriptValidation = newRuleError("ErrScriptValidation")
)

// Chain placement violations.
var (
	// ErrOrphanBlock indicates the block doesn't extend the current tip.
	ErrOrphanBlock = newRuleError("ErrOrphanBlock")

	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock = newRuleError("ErrDuplicateBlock")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// ErrMissingTxOut indicates a transaction output referenced by an input
// does not exist in the chain or earlier in the same block.
type ErrMissingTxOut struct {
	MissingOutpoints []*externalapi.DomainOutpoint
}

func (e ErrMissingTxOut) Error() string {
	return fmt.Sprintf("missing the following outpoint: %v", e.MissingOutpoints)
}

// NewErrMissingTxOut Creates a new ErrMissingTxOut error wrapped in a RuleError
func NewErrMissingTxOut(missingOutpoints []*externalapi.DomainOutpoint) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingTxOut",
		inner:   ErrMissingTxOut{missingOutpoints},
	})
}

// ErrInvalidHeader is the rejection of a block by the header checks.
type ErrInvalidHeader struct {
	Reason error
}

func (e ErrInvalidHeader) Error() string {
	return e.Reason.Error()
}

// Unwrap satisfies the errors.Unwrap interface
func (e ErrInvalidHeader) Unwrap() error {
	return e.Reason
}

// NewErrInvalidHeader wraps reason as a header rejection
func NewErrInvalidHeader(reason error) error {
	return errors.WithStack(RuleError{
		message: "ErrInvalidHeader",
		inner:   ErrInvalidHeader{reason},
	})
}

// ErrInvalidBlock is the rejection of a block by the body checks.
type ErrInvalidBlock struct {
	Reason error
}

func (e ErrInvalidBlock) Error() string {
	return e.Reason.Error()
}

// Unwrap satisfies the errors.Unwrap interface
func (e ErrInvalidBlock) Unwrap() error {
	return e.Reason
}

// NewErrInvalidBlock wraps reason as a block body rejection
func NewErrInvalidBlock(reason error) error {
	return errors.WithStack(RuleError{
		message: "ErrInvalidBlock",
		inner:   ErrInvalidBlock{reason},
	})
}

// ErrInvalidTransaction is the rejection of a block because the transaction
// at Index failed its checks.
type ErrInvalidTransaction struct {
	Index         int
	TransactionID externalapi.DomainTransactionID
	Reason        error
}

func (e ErrInvalidTransaction) Error() string {
	return fmt.Sprintf("transaction %d (%s): %s", e.Index, e.TransactionID, e.Reason)
}

// Unwrap satisfies the errors.Unwrap interface
func (e ErrInvalidTransaction) Unwrap() error {
	return e.Reason
}

// NewErrInvalidTransaction wraps reason as the rejection of the transaction
// at index
func NewErrInvalidTransaction(index int, transactionID *externalapi.DomainTransactionID, reason error) error {
	return errors.WithStack(RuleError{
		message: "ErrInvalidTransaction",
		inner:   ErrInvalidTransaction{Index: index, TransactionID: *transactionID, Reason: reason},
	})
}

// IsRuleError returns whether err is, or wraps, a RuleError.
func IsRuleError(err error) bool {
	var ruleError RuleError
	return errors.As(err, &ruleError)
}

// Validation stages a rejection can originate from.
const (
	StageHeader      = "header"
	StageBlock       = "block"
	StageTransaction = "transaction"
	StageOther       = "other"
)

// Stage returns the validation stage that produced err.
func Stage(err error) string {
	switch {
	case errors.As(err, &ErrInvalidHeader{}):
		return StageHeader
	case errors.As(err, &ErrInvalidBlock{}):
		return StageBlock
	case errors.As(err, &ErrInvalidTransaction{}):
		return StageTransaction
	}
	return StageOther
}
