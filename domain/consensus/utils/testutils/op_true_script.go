package testutils

import (
	"github.com/shardledger/shardd/domain/consensus/utils/txscript"
)

// OpTrueScript returns an anyone-can-spend script public key.
func OpTrueScript() []byte {
	return []byte{txscript.OpTrue}
}
