package helios

import (
	"errors"
	"fmt"

	"github.com/heliosworks/go-helios/inter"
)

var (
	// ErrNoRulesetAvailable means the fork table has no entry activated at
	// the queried timestamp.
	ErrNoRulesetAvailable = errors.New("no ruleset available for timestamp")

	// ErrInvalidForkTable means the fork table is misconfigured; this is
	// fatal and must be surfaced at construction time.
	ErrInvalidForkTable = errors.New("invalid fork table")
)

// ForkEntry activates a ruleset at a given timestamp.
type ForkEntry struct {
	Activation inter.Timestamp
	Ruleset    RulesetID
}

// ForkTable maps activation timestamps to rulesets, ascending by timestamp.
// It is immutable after chain configuration.
type ForkTable []ForkEntry

// Validate checks that the table is non-empty and strictly ordered.
func (t ForkTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: table is empty", ErrInvalidForkTable)
	}
	for i := 1; i < len(t); i++ {
		if t[i].Activation <= t[i-1].Activation {
			return fmt.Errorf("%w: activation %d at index %d does not increase", ErrInvalidForkTable, t[i].Activation, i)
		}
	}
	return nil
}

// RulesetIDAt returns the ruleset of the greatest activation timestamp <= ts.
// The table is scanned from the latest entry backwards; with the handful of
// forks a chain accumulates a linear scan is plenty.
func (t ForkTable) RulesetIDAt(ts inter.Timestamp) (RulesetID, error) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Activation <= ts {
			return t[i].Ruleset, nil
		}
	}
	return "", fmt.Errorf("%w: %d", ErrNoRulesetAvailable, ts)
}

// RulesetIDNow resolves the ruleset for the current wall-clock time. Callers
// that need determinism must use RulesetIDAt with an explicit timestamp.
func (t ForkTable) RulesetIDNow() (RulesetID, error) {
	return t.RulesetIDAt(inter.Now())
}
