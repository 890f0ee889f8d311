package helios

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heliosworks/go-helios/inter"
)

// TestForkTableResolution verifies that timestamps resolve to the ruleset
// with the greatest activation timestamp not after them.
func TestForkTableResolution(t *testing.T) {
	table := ForkTable{
		{Activation: 100, Ruleset: HeliosTestnetRuleset},
		{Activation: 200, Ruleset: BosonRuleset},
		{Activation: 300, Ruleset: PhotonRuleset},
	}
	require.NoError(t, table.Validate())

	tests := []struct {
		name string
		ts   inter.Timestamp
		want RulesetID
	}{
		{"first activation boundary", 100, HeliosTestnetRuleset},
		{"inside first fork", 199, HeliosTestnetRuleset},
		{"second activation boundary", 200, BosonRuleset},
		{"inside second fork", 250, BosonRuleset},
		{"latest activation boundary", 300, PhotonRuleset},
		{"far future", 1 << 40, PhotonRuleset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.RulesetIDAt(tt.ts)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

// TestForkTableBeforeFirstActivation verifies that a timestamp before every
// activation has no ruleset.
func TestForkTableBeforeFirstActivation(t *testing.T) {
	table := ForkTable{
		{Activation: 100, Ruleset: HeliosTestnetRuleset},
	}

	_, err := table.RulesetIDAt(99)
	require.ErrorIs(t, err, ErrNoRulesetAvailable)

	_, err = table.RulesetIDAt(0)
	require.ErrorIs(t, err, ErrNoRulesetAvailable)
}

// TestForkTableValidate verifies construction-time detection of empty and
// unordered tables.
func TestForkTableValidate(t *testing.T) {
	tests := []struct {
		name  string
		table ForkTable
		valid bool
	}{
		{"empty", ForkTable{}, false},
		{"nil", nil, false},
		{"single entry", ForkTable{{Activation: 1, Ruleset: PhotonRuleset}}, true},
		{
			"ascending",
			ForkTable{
				{Activation: 1, Ruleset: HeliosTestnetRuleset},
				{Activation: 2, Ruleset: BosonRuleset},
			},
			true,
		},
		{
			"descending",
			ForkTable{
				{Activation: 2, Ruleset: BosonRuleset},
				{Activation: 1, Ruleset: HeliosTestnetRuleset},
			},
			false,
		},
		{
			"duplicate activation",
			ForkTable{
				{Activation: 5, Ruleset: HeliosTestnetRuleset},
				{Activation: 5, Ruleset: BosonRuleset},
			},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidForkTable)
			}
		})
	}
}

// TestForkTableNow verifies that wall-clock resolution picks the latest
// mainnet fork, all of which activated in the past.
func TestForkTableNow(t *testing.T) {
	table := MainNetRules().Forks

	id, err := table.RulesetIDNow()
	require.NoError(t, err)
	require.Equal(t, PhotonRuleset, id)
}
