package chainacceptor

import (
	"runtime"

	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/domain/consensus/processes/blockacceptor"
	"github.com/shardledger/shardd/domain/consensus/processes/headeracceptor"
	"github.com/shardledger/shardd/domain/consensus/processes/transactionacceptor"
	"github.com/shardledger/shardd/infrastructure/logger"
	"golang.org/x/sync/errgroup"
)

// ChainAcceptor decides whether one candidate block may extend the chain.
// It is built by Validator.NewChainAcceptor and holds everything the check
// needs, so Check may be called any number of times, concurrently, and
// always yields the same verdict.
type ChainAcceptor struct {
	block *externalapi.DomainBlock

	headerAcceptor *headeracceptor.HeaderAcceptor
	headerContext  *headeracceptor.Context

	blockAcceptor *blockacceptor.BlockAcceptor
	blockContext  *blockacceptor.Context

	// transactionAcceptors is empty for blocks carrying shard headers.
	transactionAcceptors []*transactionacceptor.TransactionAcceptor
}

// Check runs the block checks, then the header checks, then the checks of
// every transaction. It returns the first failure in that order; among
// failing transactions the one with the lowest index is reported.
func (ca *ChainAcceptor) Check() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ChainAcceptor.Check")
	defer onEnd()

	err := ca.blockAcceptor.Check(ca.block, ca.blockContext)
	if err != nil {
		return err
	}

	err = ca.headerAcceptor.Check(ca.block.Header, ca.headerContext)
	if err != nil {
		return err
	}

	return ca.checkTransactions()
}

// checkTransactions checks all transactions in parallel. Every task runs to
// completion and stores its outcome in its own slot, and the verdict is
// reduced by index afterwards, so it doesn't depend on scheduling.
func (ca *ChainAcceptor) checkTransactions() error {
	results := make([]error, len(ca.transactionAcceptors))
	panics := make([]interface{}, len(ca.transactionAcceptors))

	group := errgroup.Group{}
	group.SetLimit(runtime.NumCPU())
	for i, acceptor := range ca.transactionAcceptors {
		i, acceptor := i, acceptor
		group.Go(func() error {
			defer func() {
				panics[i] = recover()
			}()
			results[i] = acceptor.Check()
			return nil
		})
	}
	// The tasks report through results, never through the group.
	_ = group.Wait()

	// A panic is an invariant violation, not a verdict. It is re-raised on
	// the caller's goroutine even when an earlier transaction was rejected.
	for i := range panics {
		if panics[i] != nil {
			panic(panics[i])
		}
	}
	for i := range results {
		if results[i] != nil {
			log.Debugf("Transaction %d of the candidate block is invalid: %s", i, results[i])
			return results[i]
		}
	}
	return nil
}
