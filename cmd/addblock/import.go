// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/ruleerrors"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/serialization"
	"github.com/shardledger/shardd/domain/dagconfig"
)

// blockProcessor is the part of a block processor the importer drives.
type blockProcessor interface {
	ValidateAndInsertBlock(block *externalapi.DomainBlock) (uint64, error)
}

// importResults houses the stats and result of an import operation.
type importResults struct {
	blocksProcessed int64
	blocksImported  int64
}

// blockImporter reads a file of serialized blocks and submits them for
// validation and insertion into the chain. Every record of the file is the
// network magic, the length of the serialized block, and the block, with
// both integers little endian.
type blockImporter struct {
	r         io.Reader
	params    *dagconfig.Params
	processor blockProcessor
	legacy    bool

	progressInterval  time.Duration
	receivedLogBlocks int64
	receivedLogTx     int64
	lastHeight        uint64
	lastBlockTime     time.Time
	lastLogTime       time.Time
}

func newBlockImporter(r io.Reader, params *dagconfig.Params, processor blockProcessor, legacy bool,
	progressInterval time.Duration) *blockImporter {

	return &blockImporter{
		r:                r,
		params:           params,
		processor:        processor,
		legacy:           legacy,
		progressInterval: progressInterval,
		lastLogTime:      time.Now(),
	}
}

// readBlock reads the next block record from the input. It returns nil
// bytes when the input is exhausted.
func (bi *blockImporter) readBlock() ([]byte, error) {
	var net uint32
	err := binary.Read(bi.r, binary.LittleEndian, &net)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed reading the network magic")
	}
	if net != bi.params.Net {
		return nil, errors.Errorf("network mismatch -- got %x, want %x", net, bi.params.Net)
	}

	var blockLen uint32
	err = binary.Read(bi.r, binary.LittleEndian, &blockLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading the block length")
	}
	if uint64(blockLen) > bi.params.MaxBlockWeight {
		return nil, errors.Errorf("block of size %d is larger than the max allowed size of %d",
			blockLen, bi.params.MaxBlockWeight)
	}

	serializedBlock := make([]byte, blockLen)
	_, err = io.ReadFull(bi.r, serializedBlock)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading the block")
	}
	return serializedBlock, nil
}

// processBlock deserializes serializedBlock and submits it. It returns
// false for blocks that are already in the chain.
func (bi *blockImporter) processBlock(serializedBlock []byte) (bool, error) {
	var block *externalapi.DomainBlock
	var err error
	if bi.legacy {
		block, err = serialization.DeserializeLegacyBlock(bytes.NewReader(serializedBlock))
	} else {
		block, err = serialization.DeserializeBlock(bytes.NewReader(serializedBlock))
	}
	if err != nil {
		return false, errors.Wrap(err, "failed deserializing a block")
	}

	blockHash := consensushashing.HeaderHash(block.Header)
	if *blockHash == *bi.params.GenesisHash {
		return false, nil
	}

	height, err := bi.processor.ValidateAndInsertBlock(block)
	if err != nil {
		if errors.Is(err, ruleerrors.ErrDuplicateBlock) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed importing block %s", blockHash)
	}

	bi.lastHeight = height
	bi.lastBlockTime = time.Unix(int64(block.Header.Timestamp), 0)
	if block.Content.Type() == externalapi.ContentTypeTransactions {
		bi.receivedLogTx += int64(len(block.Content.Transactions()))
	}
	return true, nil
}

// logProgress logs block progress as an information message. In order to
// prevent spam, it limits logging to one message every progressInterval
// with duration and totals included.
func (bi *blockImporter) logProgress() {
	bi.receivedLogBlocks++

	now := time.Now()
	duration := now.Sub(bi.lastLogTime)
	if bi.progressInterval == 0 || duration < bi.progressInterval {
		return
	}

	// Truncate the duration to 10s of milliseconds.
	tDuration := duration.Round(10 * time.Millisecond)

	// Log information about new block height.
	blockStr := "blocks"
	if bi.receivedLogBlocks == 1 {
		blockStr = "block"
	}
	txStr := "transactions"
	if bi.receivedLogTx == 1 {
		txStr = "transaction"
	}
	log.Infof("Processed %d %s in the last %s (%d %s, height %d, %s)",
		bi.receivedLogBlocks, blockStr, tDuration, bi.receivedLogTx,
		txStr, bi.lastHeight, bi.lastBlockTime)

	bi.receivedLogBlocks = 0
	bi.receivedLogTx = 0
	bi.lastLogTime = now
}

// Import reads and processes blocks until the input is exhausted, a block
// fails, or ctx is canceled. The results are returned in every case.
func (bi *blockImporter) Import(ctx context.Context) (*importResults, error) {
	results := &importResults{}
	for {
		select {
		case <-ctx.Done():
			return results, errors.Wrap(ctx.Err(), "import interrupted")
		default:
		}

		serializedBlock, err := bi.readBlock()
		if err != nil {
			return results, err
		}
		if serializedBlock == nil {
			return results, nil
		}
		results.blocksProcessed++

		imported, err := bi.processBlock(serializedBlock)
		if err != nil {
			return results, err
		}
		if imported {
			results.blocksImported++
			bi.logProgress()
		}
	}
}
