package pastmediantimemanager

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/utils/constants"
)

// PastMedianTimeManager provides a method to resolve the
// past median time of a block
type PastMedianTimeManager struct {
	store model.Store
}

// New instantiates a new PastMedianTimeManager
func New(store model.Store) *PastMedianTimeManager {
	return &PastMedianTimeManager{store: store}
}

// PastMedianTime returns the median timestamp of the up to
// constants.MedianTimeBlocks blocks directly below height. A block at
// height must have a timestamp greater than it.
func (pmtm *PastMedianTimeManager) PastMedianTime(height uint64) (int64, error) {
	if height == 0 {
		return 0, errors.New("the genesis block has no past")
	}

	windowSize := uint64(constants.MedianTimeBlocks)
	if height < windowSize {
		windowSize = height
	}

	timestamps := make([]int64, 0, windowSize)
	for ancestorHeight := height - windowSize; ancestorHeight < height; ancestorHeight++ {
		header, found, err := pmtm.store.HeaderByHeight(ancestorHeight)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, errors.Errorf("header at height %d is missing", ancestorHeight)
		}
		timestamps = append(timestamps, int64(header.Timestamp))
	}

	return medianTimestamp(timestamps), nil
}

func medianTimestamp(timestamps []int64) int64 {
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i] < timestamps[j]
	})

	// NOTE: The consensus rules incorrectly calculate the median for even
	// numbers of blocks. A true median averages the middle two elements
	// for a set with an even number of elements in it. Since the constant
	// for the previous number of blocks to be used is odd, this is only an
	// issue for a few blocks near the beginning of the chain.
	return timestamps[len(timestamps)/2]
}
