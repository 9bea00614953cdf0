package externalapi

// UTXOEntry houses details about an individual transaction output: how much
// it pays, its locking script, the height of the block that confirmed it and
// whether that transaction was a coinbase.
type UTXOEntry struct {
	Amount          uint64
	ScriptPublicKey []byte
	BlockHeight     uint64
	IsCoinbase      bool
}

// OutputMeta is the confirmation metadata the chain store keeps for an
// output. IsSpent is set once a committed block has spent it.
type OutputMeta struct {
	BlockHeight uint64
	IsCoinbase  bool
	IsSpent     bool
}
