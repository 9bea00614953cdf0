package hashes

import (
	"math/big"

	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// ToBig converts a hash into a big.Int treating the hash bytes as a little
// endian number, which is how proof-of-work targets are compared.
func ToBig(hash *externalapi.DomainHash) *big.Int {
	buf := make([]byte, externalapi.DomainHashSize)
	for i := 0; i < externalapi.DomainHashSize; i++ {
		buf[i] = hash[externalapi.DomainHashSize-1-i]
	}
	return new(big.Int).SetBytes(buf)
}

// Less returns true iff hash a is less than hash b when both are read as
// little endian numbers.
func Less(a, b *externalapi.DomainHash) bool {
	for i := externalapi.DomainHashSize - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return true
		case a[i] > b[i]:
			return false
		}
	}
	return false
}
