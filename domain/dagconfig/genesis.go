// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"math"

	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/consensushashing"
	"github.com/shardledger/shardd/domain/consensus/utils/merkle"
)

// genesisCoinbaseTx is the coinbase transaction for the genesis blocks of
// every shard network.
var genesisCoinbaseTx = &externalapi.DomainTransaction{
	Version: 1,
	Inputs: []*externalapi.DomainTransactionInput{
		{
			PreviousOutpoint: externalapi.DomainOutpoint{Index: math.MaxUint32},
			SignatureScript: []byte{
				0x04, 0xff, 0xff, 0x00, 0x1d, 0x01, 0x04, 0x45, /* |.......E| */
				0x54, 0x68, 0x65, 0x20, 0x54, 0x69, 0x6d, 0x65, /* |The Time| */
				0x73, 0x20, 0x30, 0x33, 0x2f, 0x4a, 0x61, 0x6e, /* |s 03/Jan| */
				0x2f, 0x32, 0x30, 0x30, 0x39, 0x20, 0x43, 0x68, /* |/2009 Ch| */
				0x61, 0x6e, 0x63, 0x65, 0x6c, 0x6c, 0x6f, 0x72, /* |ancellor| */
				0x20, 0x6f, 0x6e, 0x20, 0x62, 0x72, 0x69, 0x6e, /* | on brin| */
				0x6b, 0x20, 0x6f, 0x66, 0x20, 0x73, 0x65, 0x63, /* |k of sec|*/
				0x6f, 0x6e, 0x64, 0x20, 0x62, 0x61, 0x69, 0x6c, /* |ond bail| */
				0x6f, 0x75, 0x74, 0x20, 0x66, 0x6f, 0x72, 0x20, /* |out for |*/
				0x62, 0x61, 0x6e, 0x6b, 0x73, /* |banks| */
			},
			Sequence: math.MaxUint32,
		},
	},
	Outputs: []*externalapi.DomainTransactionOutput{
		{
			Value: 0x12a05f200,
			ScriptPublicKey: []byte{
				0x41, 0x04, 0x67, 0x8a, 0xfd, 0xb0, 0xfe, 0x55, /* |A.g....U| */
				0x48, 0x27, 0x19, 0x67, 0xf1, 0xa6, 0x71, 0x30, /* |H'.g..q0| */
				0xb7, 0x10, 0x5c, 0xd6, 0xa8, 0x28, 0xe0, 0x39, /* |..\..(.9| */
				0x09, 0xa6, 0x79, 0x62, 0xe0, 0xea, 0x1f, 0x61, /* |..yb...a| */
				0xde, 0xb6, 0x49, 0xf6, 0xbc, 0x3f, 0x4c, 0xef, /* |..I..?L.| */
				0x38, 0xc4, 0xf3, 0x55, 0x04, 0xe5, 0x1e, 0xc1, /* |8..U....| */
				0x12, 0xde, 0x5c, 0x38, 0x4d, 0xf7, 0xba, 0x0b, /* |..\8M...| */
				0x8d, 0x57, 0x8a, 0x4c, 0x70, 0x2b, 0x6b, 0xf1, /* |.W.Lp+k.| */
				0x1d, 0x5f, 0xac, /* |._.| */
			},
		},
	},
	LockTime: 0,
}

var genesisContent = externalapi.NewTransactionsContent([]*externalapi.DomainTransaction{genesisCoinbaseTx})

// genesisMerkleRoot is the hash of the first transaction in the genesis
// block of every shard network.
var genesisMerkleRoot = merkle.CalculateHashMerkleRoot(genesisContent)

// genesisBlock defines the genesis block of the main shard network.
var genesisBlock = externalapi.NewDomainBlock(&externalapi.DomainBlockHeader{
	Version:    1,
	MerkleRoot: *genesisMerkleRoot,
	Timestamp:  1231006505,
	Bits:       0x1d00ffff,
	Nonce:      0x7c2bac1d,
}, genesisContent)

var genesisHash = consensushashing.BlockHash(genesisBlock)

// testnetGenesisBlock defines the genesis block of the test shard network.
var testnetGenesisBlock = externalapi.NewDomainBlock(&externalapi.DomainBlockHeader{
	Version:    1,
	MerkleRoot: *genesisMerkleRoot,
	Timestamp:  1296688602,
	Bits:       0x1d00ffff,
	Nonce:      0x18aea41a,
}, genesisContent)

var testnetGenesisHash = consensushashing.BlockHash(testnetGenesisBlock)

// regressionGenesisBlock defines the genesis block of the regression test
// shard network.
var regressionGenesisBlock = externalapi.NewDomainBlock(&externalapi.DomainBlockHeader{
	Version:    1,
	MerkleRoot: *genesisMerkleRoot,
	Timestamp:  1296688602,
	Bits:       0x207fffff,
	Nonce:      2,
}, genesisContent)

var regressionGenesisHash = consensushashing.BlockHash(regressionGenesisBlock)

// beaconGenesisBlock defines the genesis block of the beacon chain. It
// commits to no shard headers.
var beaconGenesisBlock = externalapi.NewDomainBlock(&externalapi.DomainBlockHeader{
	Version:    1,
	MerkleRoot: *merkle.CalculateHashMerkleRoot(externalapi.NewShardHeadersContent(nil)),
	Timestamp:  1296688602,
	Bits:       0x207fffff,
	Nonce:      0,
}, externalapi.NewShardHeadersContent(nil))

var beaconGenesisHash = consensushashing.BlockHash(beaconGenesisBlock)
