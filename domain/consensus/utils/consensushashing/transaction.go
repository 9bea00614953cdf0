package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/utils/hashes"
	"github.com/shardledger/shardd/domain/consensus/utils/serialization"
)

// TransactionID returns the hash of the transaction without its witness
// data. This is the identity outpoints refer to.
func TransactionID(tx *externalapi.DomainTransaction) *externalapi.DomainTransactionID {
	hash := transactionHash(tx, false)
	return (*externalapi.DomainTransactionID)(hash)
}

// TransactionWitnessHash returns the hash of the transaction including its
// witness data. It equals the ID for transactions without witness data.
func TransactionWitnessHash(tx *externalapi.DomainTransaction) *externalapi.DomainHash {
	return transactionHash(tx, true)
}

// TransactionIDs returns the IDs of all transactions in order.
func TransactionIDs(txs []*externalapi.DomainTransaction) []*externalapi.DomainTransactionID {
	txIDs := make([]*externalapi.DomainTransactionID, len(txs))
	for i, tx := range txs {
		txIDs[i] = TransactionID(tx)
	}
	return txIDs
}

func transactionHash(tx *externalapi.DomainTransaction, withWitness bool) *externalapi.DomainHash {
	writer := hashes.NewDoubleHashWriter()
	err := serialization.SerializeTransaction(writer, tx, withWitness)
	if err != nil {
		panic(errors.Wrap(err, "TransactionHash() failed. this should never fail for structurally-valid transactions"))
	}
	return writer.Finalize()
}
