package multiset

import (
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// Multiset is an order-independent hash of a set of byte strings. Elements
// can be added and removed in any order, and sets with equal elements hash
// equally.
type Multiset struct {
	ms *muhash.MuHash
}

// Add adds data to the multiset.
func (m *Multiset) Add(data []byte) {
	m.ms.Add(data)
}

// Remove removes data from the multiset.
func (m *Multiset) Remove(data []byte) {
	m.ms.Remove(data)
}

// Hash returns the hash committing to the current elements.
func (m *Multiset) Hash() *externalapi.DomainHash {
	finalizedHash := m.ms.Finalize()
	hash := externalapi.DomainHash(*finalizedHash.AsArray())
	return &hash
}

// Serialize returns the serialized state of the multiset.
func (m *Multiset) Serialize() []byte {
	return m.ms.Serialize()[:]
}

// Clone returns a clone of the multiset.
func (m *Multiset) Clone() *Multiset {
	return &Multiset{ms: m.ms.Clone()}
}

// FromBytes deserializes the given bytes slice and returns a multiset.
func FromBytes(multisetBytes []byte) (*Multiset, error) {
	serialized := &muhash.SerializedMuHash{}
	if len(serialized) != len(multisetBytes) {
		return nil, errors.Errorf("mutliset bytes expected to be in length of %d but got %d",
			len(serialized), len(multisetBytes))
	}
	copy(serialized[:], multisetBytes)
	ms, err := muhash.DeserializeMuHash(serialized)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Multiset{ms: ms}, nil
}

// New returns a new empty Multiset
func New() *Multiset {
	return &Multiset{ms: muhash.NewMuHash()}
}
