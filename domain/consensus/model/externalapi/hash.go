package externalapi

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainHashSize of array used to store hashes.
const DomainHashSize = 32

// DomainHash is a 32-byte double-SHA256 identity. It is displayed in
// reversed byte order, the way the legacy chain prints block and
// transaction hashes.
type DomainHash [DomainHashSize]byte

// ZeroHash is the all-zero hash.
var ZeroHash DomainHash

// NewDomainHashFromByteSlice copies hashBytes into a new DomainHash.
func NewDomainHashFromByteSlice(hashBytes []byte) (*DomainHash, error) {
	if len(hashBytes) != DomainHashSize {
		return nil, errors.Errorf("invalid hash size. Want: %d, got: %d",
			DomainHashSize, len(hashBytes))
	}
	var hash DomainHash
	copy(hash[:], hashBytes)
	return &hash, nil
}

// NewDomainHashFromString parses a hash in its displayed (byte-reversed)
// hex form.
func NewDomainHashFromString(hashString string) (*DomainHash, error) {
	if len(hashString) != DomainHashSize*2 {
		return nil, errors.Errorf("hash string length is %d, while it should be be %d",
			len(hashString), DomainHashSize*2)
	}
	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var hash DomainHash
	for i, b := range hashBytes {
		hash[DomainHashSize-1-i] = b
	}
	return &hash, nil
}

// String returns the hash in reversed-byte hex.
func (hash DomainHash) String() string {
	var reversed DomainHash
	for i, b := range hash {
		reversed[DomainHashSize-1-i] = b
	}
	return hex.EncodeToString(reversed[:])
}

// ByteSlice returns a copy of the hash bytes in storage order.
func (hash *DomainHash) ByteSlice() []byte {
	clone := *hash
	return clone[:]
}

// Equal returns whether hash equals to other
func (hash *DomainHash) Equal(other *DomainHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return *hash == *other
}

// IsZero returns true if every byte of the hash is zero.
func (hash *DomainHash) IsZero() bool {
	return *hash == ZeroHash
}

// HashesEqual returns whether the given hash slices are equal.
func HashesEqual(a, b []DomainHash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
