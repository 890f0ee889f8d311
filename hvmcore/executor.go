package hvmcore

import (
	"github.com/heliosworks/go-helios/inter"
)

// Computation is the trace of one transaction's execution, as reported by
// the executor. The chain core transports it but never interprets it.
type Computation struct {
	Output  []byte
	GasUsed uint64
	Err     error
}

// Executor applies a block's transactions on top of a base header and
// returns an updated header (gas used, bloom, receipt root, account state
// root and balance filled in) plus per-transaction receipts and traces.
//
// Apply must be functional with respect to the chain: it never mutates the
// input header or the chain's persisted structures, so a caller may apply
// against a disposable header copy and discard the result. Execution
// failures (invalid transaction, out of gas, invalid opcode) are returned
// unchanged and opaque to this core.
type Executor interface {
	Apply(header *inter.BlockHeader, txs inter.SendTransactions, rtxs inter.ReceiveTransactions) (*inter.BlockHeader, inter.Receipts, []*Computation, error)
}

// GasEstimator estimates the gas a transaction would use if executed on top
// of the given header. Implementations run against discarded state only.
type GasEstimator func(ex Executor, at *inter.BlockHeader, tx *inter.SendTransaction) (uint64, error)

// DefaultGasEstimator applies the transaction alone on a copy of the base
// header and reports the gas the execution consumed. The copy is discarded,
// so concurrent estimates never observe each other.
func DefaultGasEstimator(ex Executor, at *inter.BlockHeader, tx *inter.SendTransaction) (uint64, error) {
	base := at.Copy()
	base.GasUsed = 0
	executed, _, _, err := ex.Apply(base, inter.SendTransactions{tx}, nil)
	if err != nil {
		return 0, err
	}
	return executed.GasUsed, nil
}
