package chainstore

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/utxo"
)

var (
	headersBucket = []byte("headers-")
	heightsBucket = []byte("heights-")
	outputsBucket = []byte("outputs-")

	tipKey      = []byte("tip")
	multisetKey = []byte("utxo-multiset")
)

func bucketKey(bucket []byte, suffix []byte) []byte {
	key := make([]byte, 0, len(bucket)+len(suffix))
	key = append(key, bucket...)
	return append(key, suffix...)
}

// headerKey is big endian so that headers iterate in height order.
func headerKey(height uint64) []byte {
	var heightBytes [8]byte
	binary.BigEndian.PutUint64(heightBytes[:], height)
	return bucketKey(headersBucket, heightBytes[:])
}

func heightKey(blockHash *externalapi.DomainHash) []byte {
	return bucketKey(heightsBucket, blockHash[:])
}

func outputKey(outpoint *externalapi.DomainOutpoint) []byte {
	return bucketKey(outputsBucket, utxo.SerializeOutpoint(outpoint))
}

func serializeHeight(height uint64) []byte {
	var heightBytes [8]byte
	binary.LittleEndian.PutUint64(heightBytes[:], height)
	return heightBytes[:]
}

func deserializeHeight(heightBytes []byte) (uint64, error) {
	if len(heightBytes) != 8 {
		return 0, errors.Errorf("height bytes expected to be in length of 8 but got %d", len(heightBytes))
	}
	return binary.LittleEndian.Uint64(heightBytes), nil
}

func serializeTip(tipHash *externalapi.DomainHash, height uint64) []byte {
	return append(append([]byte{}, tipHash[:]...), serializeHeight(height)...)
}

func deserializeTip(tipBytes []byte) (*externalapi.DomainHash, uint64, error) {
	if len(tipBytes) != externalapi.DomainHashSize+8 {
		return nil, 0, errors.Errorf("tip bytes expected to be in length of %d but got %d",
			externalapi.DomainHashSize+8, len(tipBytes))
	}
	var tipHash externalapi.DomainHash
	copy(tipHash[:], tipBytes)
	height, err := deserializeHeight(tipBytes[externalapi.DomainHashSize:])
	if err != nil {
		return nil, 0, err
	}
	return &tipHash, height, nil
}
