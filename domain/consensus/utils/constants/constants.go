package constants

import "math"

const (
	// MaxBlockBaseSize is the maximum size of a block serialized without
	// witness data.
	MaxBlockBaseSize = 1_000_000

	// WitnessScaleFactor is how many times cheaper witness bytes are than
	// base bytes when computing weight.
	WitnessScaleFactor = 4

	// MaxBlockWeight is the maximum weight of a block.
	MaxBlockWeight = MaxBlockBaseSize * WitnessScaleFactor

	// MaxBlockSigOpsCost is the maximum signature operation cost of a block.
	MaxBlockSigOpsCost = 80_000

	// MaxTxSigOpsCostDivisor caps a single transaction at this fraction of
	// the block signature operation budget.
	MaxTxSigOpsCostDivisor = 5

	// MaxTransactionSigOpsCost is the maximum signature operation cost of a
	// single transaction.
	MaxTransactionSigOpsCost = MaxBlockSigOpsCost / MaxTxSigOpsCostDivisor

	// SatoshiPerCoin is the number of satoshi in one coin.
	SatoshiPerCoin = 100_000_000

	// MaxSatoshi is the maximum transaction amount allowed in satoshi.
	MaxSatoshi = 21_000_000 * SatoshiPerCoin

	// MinCoinbaseScriptLen is the minimum length a coinbase script can be.
	MinCoinbaseScriptLen = 2

	// MaxCoinbaseScriptLen is the maximum length a coinbase script can be.
	MaxCoinbaseScriptLen = 100

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be. An input with this sequence is final.
	MaxTxInSequenceNum uint32 = math.MaxUint32

	// SequenceLockTimeDisabled is the flag that, if set on an input's
	// sequence number, means the sequence number has no relative lock time
	// meaning.
	SequenceLockTimeDisabled uint32 = 1 << 31

	// SequenceLockTimeIsSeconds is the flag that, if set on an input's
	// sequence number, means the relative lock time is in units of 512
	// seconds rather than blocks.
	SequenceLockTimeIsSeconds uint32 = 1 << 22

	// SequenceLockTimeMask extracts the relative lock time from a sequence
	// number.
	SequenceLockTimeMask uint32 = 0x0000ffff

	// SequenceLockTimeGranularity is the base 2 logarithm of the seconds
	// in one unit of a time based relative lock time.
	SequenceLockTimeGranularity = 9

	// LockTimeThreshold is the number below which a lock time is
	// interpreted to be a block height.
	LockTimeThreshold = 500_000_000

	// MedianTimeBlocks is the number of ancestors whose timestamps form the
	// median time past.
	MedianTimeBlocks = 11

	// CoinbaseTransactionIndex is the index of the coinbase transaction in
	// every shard block.
	CoinbaseTransactionIndex = 0

	// WitnessCommitmentHeaderLen is the length of the prefix marking a
	// witness commitment output script.
	WitnessCommitmentHeaderLen = 6

	// WitnessCommitmentScriptLen is the minimum length of a witness
	// commitment output script.
	WitnessCommitmentScriptLen = WitnessCommitmentHeaderLen + 32

	// WitnessReservedValueLen is the length of the coinbase witness item
	// that is committed together with the witness root.
	WitnessReservedValueLen = 32
)

// WitnessCommitmentHeader prefixes the coinbase output script that carries
// the witness commitment: OP_RETURN OP_DATA_36 0xaa21a9ed.
var WitnessCommitmentHeader = [WitnessCommitmentHeaderLen]byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}
