// Package helios defines the network rules for Helios block-lattice
// deployments: network identification, the timestamp-activated fork table,
// per-ruleset execution parameters and genesis configuration.
package helios

import (
	"encoding/json"
	"fmt"

	"github.com/heliosworks/go-helios/inter"
)

// Network identification constants.
const (
	// MainNetworkID is the chain id of the Helios mainnet.
	MainNetworkID uint64 = 1

	// TestNetworkID is the chain id of the public testnet.
	TestNetworkID uint64 = 42

	// FakeNetworkID is the chain id of local networks used in testing.
	FakeNetworkID uint64 = 43
)

// Ruleset identifiers, named after the forks that introduced them.
const (
	HeliosTestnetRuleset RulesetID = "helios-testnet"
	BosonRuleset         RulesetID = "boson"
	PhotonRuleset        RulesetID = "photon"
)

// Fork activation timestamps on the main network.
const (
	heliosTestnetActivation inter.Timestamp = 1542748000
	bosonActivation         inter.Timestamp = 1577836800
	photonActivation        inter.Timestamp = 1609459200
)

// RulesetID names a timestamp-activated bundle of execution and validation
// rules.
type RulesetID string

// Ruleset carries the tunable validation parameters of one fork. The forks
// differ by opcode and fee semantics inside the executor; at the chain level
// they differ by these knobs.
type Ruleset struct {
	ID RulesetID

	// GasLimitBoundDivisor bounds the per-block elastic gas limit step:
	// a child's gas limit may move at most parent/divisor from the parent's.
	GasLimitBoundDivisor uint64

	// MinGasLimit is the floor below which the gas limit may never fall.
	MinGasLimit uint64

	// GasLimitFloor is the target the computed gas limit gravitates back to
	// when blocks are empty.
	GasLimitFloor uint64

	// GasLimitUsageNumerator/Denominator scale how strongly parent gas usage
	// pulls the computed child gas limit upwards.
	GasLimitUsageNumerator   uint64
	GasLimitUsageDenominator uint64

	// MinTimeBetweenBlocks throttles block production on a single account
	// chain, in seconds since the parent block's timestamp.
	MinTimeBetweenBlocks uint64
}

// GenesisParams describes the first block of every fresh account chain.
type GenesisParams struct {
	Time     inter.Timestamp
	GasLimit uint64
	Extra    []byte
}

// Rules describes the complete configuration of a Helios network.
type Rules struct {
	Name      string
	NetworkID uint64

	Forks    ForkTable
	Rulesets map[RulesetID]Ruleset

	Genesis GenesisParams
}

// Ruleset returns the ruleset registered under id.
func (r Rules) Ruleset(id RulesetID) (Ruleset, error) {
	rs, ok := r.Rulesets[id]
	if !ok {
		return Ruleset{}, fmt.Errorf("%w: unknown ruleset %q", ErrInvalidForkTable, id)
	}
	return rs, nil
}

// RulesetAt resolves the ruleset governing a block with the given timestamp.
func (r Rules) RulesetAt(ts inter.Timestamp) (Ruleset, error) {
	id, err := r.Forks.RulesetIDAt(ts)
	if err != nil {
		return Ruleset{}, err
	}
	return r.Ruleset(id)
}

// RulesetNow resolves the ruleset for the current wall-clock time.
func (r Rules) RulesetNow() (Ruleset, error) {
	return r.RulesetAt(inter.Now())
}

// Validate checks the network configuration for construction-time errors:
// an empty or unordered fork table, or a fork referencing an unknown ruleset.
func (r Rules) Validate() error {
	if err := r.Forks.Validate(); err != nil {
		return err
	}
	for _, e := range r.Forks {
		if _, ok := r.Rulesets[e.Ruleset]; !ok {
			return fmt.Errorf("%w: fork at %d references unknown ruleset %q", ErrInvalidForkTable, e.Activation, e.Ruleset)
		}
	}
	return nil
}

// MainNetRules returns the rules of the Helios mainnet.
func MainNetRules() Rules {
	return Rules{
		Name:      "main",
		NetworkID: MainNetworkID,
		Forks: ForkTable{
			{Activation: heliosTestnetActivation, Ruleset: HeliosTestnetRuleset},
			{Activation: bosonActivation, Ruleset: BosonRuleset},
			{Activation: photonActivation, Ruleset: PhotonRuleset},
		},
		Rulesets: DefaultRulesets(),
		Genesis: GenesisParams{
			Time:     heliosTestnetActivation,
			GasLimit: 3141592,
		},
	}
}

// TestNetRules returns the rules of the public testnet.
func TestNetRules() Rules {
	r := MainNetRules()
	r.Name = "test"
	r.NetworkID = TestNetworkID
	return r
}

// FakeNetRules returns rules for local development networks: a single
// ruleset active from the unix epoch, so any test timestamp resolves.
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		Forks: ForkTable{
			{Activation: 1, Ruleset: PhotonRuleset},
		},
		Rulesets: DefaultRulesets(),
		Genesis: GenesisParams{
			Time:     heliosTestnetActivation,
			GasLimit: 3141592,
		},
	}
}

// DefaultRulesets returns the ruleset registry shared by all networks.
func DefaultRulesets() map[RulesetID]Ruleset {
	return map[RulesetID]Ruleset{
		HeliosTestnetRuleset: defaultRuleset(HeliosTestnetRuleset),
		BosonRuleset:         defaultRuleset(BosonRuleset),
		PhotonRuleset:        defaultRuleset(PhotonRuleset),
	}
}

func defaultRuleset(id RulesetID) Ruleset {
	return Ruleset{
		ID:                       id,
		GasLimitBoundDivisor:     1024,
		MinGasLimit:              5000,
		GasLimitFloor:            3141592,
		GasLimitUsageNumerator:   3,
		GasLimitUsageDenominator: 2,
		MinTimeBetweenBlocks:     1,
	}
}

// Copy returns a deep copy of the rules.
func (r Rules) Copy() Rules {
	cpy := r
	cpy.Forks = append(ForkTable(nil), r.Forks...)
	cpy.Rulesets = make(map[RulesetID]Ruleset, len(r.Rulesets))
	for id, rs := range r.Rulesets {
		cpy.Rulesets[id] = rs
	}
	if r.Genesis.Extra != nil {
		cpy.Genesis.Extra = append([]byte(nil), r.Genesis.Extra...)
	}
	return cpy
}

// String returns the rules as JSON, for logging and config dumps.
func (r Rules) String() string {
	b, err := json.Marshal(&r)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
