package hvmcore

import (
	"github.com/heliosworks/go-helios/helios"
	"github.com/heliosworks/go-helios/inter"
)

// HeaderOverride adjusts a header produced by CreateHeaderFromParent before
// it is validated against the ruleset's invariants.
type HeaderOverride func(*inter.BlockHeader)

// WithTime overrides the header timestamp.
func WithTime(ts inter.Timestamp) HeaderOverride {
	return func(h *inter.BlockHeader) { h.Time = ts }
}

// WithGasLimit overrides the header gas limit.
func WithGasLimit(limit uint64) HeaderOverride {
	return func(h *inter.BlockHeader) { h.GasLimit = limit }
}

// WithExtra overrides the header extra data.
func WithExtra(extra []byte) HeaderOverride {
	return func(h *inter.BlockHeader) { h.Extra = extra }
}

// GenesisHeader synthesizes the header of block 0 of a fresh account chain.
func GenesisHeader(g helios.GenesisParams) *inter.BlockHeader {
	return &inter.BlockHeader{
		ParentHash:    inter.ZeroHash,
		TxRoot:        inter.EmptyRootHash,
		ReceiveTxRoot: inter.EmptyRootHash,
		ReceiptRoot:   inter.EmptyRootHash,
		Number:        0,
		GasLimit:      g.GasLimit,
		Time:          g.Time,
		Extra:         append([]byte(nil), g.Extra...),
	}
}

// CreateHeaderFromParent builds the next header template on top of parent
// under the given ruleset: number increases by one, the timestamp is
// monotonic, and the gas limit follows the ruleset's elastic target.
// Overrides that violate the ruleset's invariants fail with a validation
// error.
func CreateHeaderFromParent(rs helios.Ruleset, parent *inter.BlockHeader, overrides ...HeaderOverride) (*inter.BlockHeader, error) {
	ts := inter.Now()
	if min := parent.Time + inter.Timestamp(rs.MinTimeBetweenBlocks); ts < min {
		ts = min
	}
	header := &inter.BlockHeader{
		ParentHash:    parent.Hash(),
		TxRoot:        inter.EmptyRootHash,
		ReceiveTxRoot: inter.EmptyRootHash,
		ReceiptRoot:   inter.EmptyRootHash,
		Number:        parent.Number + 1,
		GasLimit:      ComputeGasLimit(rs, parent),
		Time:          ts,
	}
	for _, override := range overrides {
		override(header)
	}
	if header.Time <= parent.Time {
		return nil, validationErrorf("header timestamp %d is not after parent timestamp %d", header.Time, parent.Time)
	}
	if low, high := GasLimitBounds(rs, parent); header.GasLimit < low || header.GasLimit > high {
		return nil, validationErrorf("header gas limit %d outside [%d, %d]", header.GasLimit, low, high)
	}
	return header, nil
}

// ComputeGasLimit derives the default gas limit of a child block: it decays
// towards the ruleset floor when blocks run empty and expands with parent
// usage, always within the elastic bounds.
func ComputeGasLimit(rs helios.Ruleset, parent *inter.BlockHeader) uint64 {
	decay := parent.GasLimit / rs.GasLimitBoundDivisor

	var usageIncrease uint64
	if parent.GasUsed > 0 {
		usageIncrease = parent.GasUsed * rs.GasLimitUsageNumerator / rs.GasLimitUsageDenominator / rs.GasLimitBoundDivisor
	}

	limit := rs.MinGasLimit
	if parent.GasLimit-decay+usageIncrease > limit {
		limit = parent.GasLimit - decay + usageIncrease
	}
	if limit < rs.MinGasLimit {
		return rs.MinGasLimit
	}
	if limit < rs.GasLimitFloor {
		return parent.GasLimit + decay
	}
	return limit
}

// GasLimitBounds returns the inclusive [low, high] window a child's gas
// limit must fall in relative to parent.
func GasLimitBounds(rs helios.Ruleset, parent *inter.BlockHeader) (low, high uint64) {
	boundary := parent.GasLimit / rs.GasLimitBoundDivisor
	high = parent.GasLimit + boundary
	if parent.GasLimit > boundary && parent.GasLimit-boundary > rs.MinGasLimit {
		low = parent.GasLimit - boundary
	} else {
		low = rs.MinGasLimit
	}
	return low, high
}
