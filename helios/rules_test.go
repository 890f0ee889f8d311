package helios

import (
	"encoding/json"
	"testing"
)

// TestNetworkConstants verifies the chain id constants of the known networks.
func TestNetworkConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant uint64
		want     uint64
	}{
		{"MainNetworkID", MainNetworkID, 1},
		{"TestNetworkID", TestNetworkID, 42},
		{"FakeNetworkID", FakeNetworkID, 43},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.constant, tt.want)
			}
		})
	}
}

// TestMainNetRules verifies the mainnet configuration.
func TestMainNetRules(t *testing.T) {
	rules := MainNetRules()

	if rules.Name != "main" {
		t.Errorf("Name = %q, want %q", rules.Name, "main")
	}
	if rules.NetworkID != MainNetworkID {
		t.Errorf("NetworkID = %d, want %d", rules.NetworkID, MainNetworkID)
	}
	if err := rules.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	// The three mainnet forks, ascending.
	if len(rules.Forks) != 3 {
		t.Fatalf("len(Forks) = %d, want 3", len(rules.Forks))
	}
	if rules.Forks[0].Ruleset != HeliosTestnetRuleset {
		t.Errorf("Forks[0].Ruleset = %q, want %q", rules.Forks[0].Ruleset, HeliosTestnetRuleset)
	}
	if rules.Forks[2].Ruleset != PhotonRuleset {
		t.Errorf("Forks[2].Ruleset = %q, want %q", rules.Forks[2].Ruleset, PhotonRuleset)
	}

	// Genesis parameters shared by every fresh account chain.
	if rules.Genesis.GasLimit != 3141592 {
		t.Errorf("Genesis.GasLimit = %d, want %d", rules.Genesis.GasLimit, 3141592)
	}
	if rules.Genesis.Time != heliosTestnetActivation {
		t.Errorf("Genesis.Time = %d, want %d", rules.Genesis.Time, heliosTestnetActivation)
	}
}

// TestTestNetRules verifies that the testnet differs from mainnet only in
// identification.
func TestTestNetRules(t *testing.T) {
	rules := TestNetRules()

	if rules.Name != "test" {
		t.Errorf("Name = %q, want %q", rules.Name, "test")
	}
	if rules.NetworkID != TestNetworkID {
		t.Errorf("NetworkID = %d, want %d", rules.NetworkID, TestNetworkID)
	}
	if err := rules.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	main := MainNetRules()
	if len(rules.Forks) != len(main.Forks) {
		t.Errorf("len(Forks) = %d, want %d", len(rules.Forks), len(main.Forks))
	}
	if rules.Genesis.GasLimit != main.Genesis.GasLimit || rules.Genesis.Time != main.Genesis.Time {
		t.Error("testnet genesis should match mainnet genesis")
	}
}

// TestFakeNetRules verifies that local networks activate the latest ruleset
// from the unix epoch so any test timestamp resolves.
func TestFakeNetRules(t *testing.T) {
	rules := FakeNetRules()

	if rules.Name != "fake" {
		t.Errorf("Name = %q, want %q", rules.Name, "fake")
	}
	if rules.NetworkID != FakeNetworkID {
		t.Errorf("NetworkID = %d, want %d", rules.NetworkID, FakeNetworkID)
	}
	if err := rules.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	rs, err := rules.RulesetAt(1)
	if err != nil {
		t.Fatalf("RulesetAt(1) = %v", err)
	}
	if rs.ID != PhotonRuleset {
		t.Errorf("RulesetAt(1).ID = %q, want %q", rs.ID, PhotonRuleset)
	}
}

// TestRulesetResolution verifies end-to-end fork-to-ruleset resolution on
// the mainnet table.
func TestRulesetResolution(t *testing.T) {
	rules := MainNetRules()

	rs, err := rules.RulesetAt(heliosTestnetActivation)
	if err != nil {
		t.Fatalf("RulesetAt(genesis) = %v", err)
	}
	if rs.ID != HeliosTestnetRuleset {
		t.Errorf("ruleset at genesis = %q, want %q", rs.ID, HeliosTestnetRuleset)
	}

	rs, err = rules.RulesetAt(bosonActivation + 1)
	if err != nil {
		t.Fatalf("RulesetAt(boson+1) = %v", err)
	}
	if rs.ID != BosonRuleset {
		t.Errorf("ruleset after boson activation = %q, want %q", rs.ID, BosonRuleset)
	}

	if _, err = rules.RulesetAt(heliosTestnetActivation - 1); err == nil {
		t.Error("expected error before the first activation")
	}
}

// TestRulesValidateUnknownRuleset verifies that a fork referencing a ruleset
// missing from the registry fails validation.
func TestRulesValidateUnknownRuleset(t *testing.T) {
	rules := MainNetRules()
	rules.Forks = append(rules.Forks, ForkEntry{
		Activation: 1 << 40,
		Ruleset:    RulesetID("tachyon"),
	})

	if err := rules.Validate(); err == nil {
		t.Fatal("expected validation error for unknown ruleset")
	}
}

// TestDefaultRulesetParameters verifies the per-fork validation knobs.
func TestDefaultRulesetParameters(t *testing.T) {
	for id, rs := range DefaultRulesets() {
		if rs.ID != id {
			t.Errorf("ruleset %q registered under %q", rs.ID, id)
		}
		if rs.GasLimitBoundDivisor != 1024 {
			t.Errorf("%s: GasLimitBoundDivisor = %d, want 1024", id, rs.GasLimitBoundDivisor)
		}
		if rs.MinGasLimit != 5000 {
			t.Errorf("%s: MinGasLimit = %d, want 5000", id, rs.MinGasLimit)
		}
		if rs.GasLimitFloor != 3141592 {
			t.Errorf("%s: GasLimitFloor = %d, want 3141592", id, rs.GasLimitFloor)
		}
		if rs.MinTimeBetweenBlocks != 1 {
			t.Errorf("%s: MinTimeBetweenBlocks = %d, want 1", id, rs.MinTimeBetweenBlocks)
		}
	}
}

// TestRulesCopy verifies that Copy() detaches the fork table and ruleset
// registry from the original.
func TestRulesCopy(t *testing.T) {
	original := MainNetRules()
	copied := original.Copy()

	copied.Forks[0].Activation = 999
	if original.Forks[0].Activation == 999 {
		t.Error("fork table is shared between original and copy")
	}

	rs := copied.Rulesets[PhotonRuleset]
	rs.MinGasLimit = 1
	copied.Rulesets[PhotonRuleset] = rs
	if original.Rulesets[PhotonRuleset].MinGasLimit == 1 {
		t.Error("ruleset registry is shared between original and copy")
	}
}

// TestRulesString verifies that String() serializes as valid JSON.
func TestRulesString(t *testing.T) {
	rules := MainNetRules()

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(rules.String()), &decoded); err != nil {
		t.Fatalf("String() returned invalid JSON: %v", err)
	}
	if decoded["Name"] != "main" {
		t.Errorf("decoded Name = %v, want %q", decoded["Name"], "main")
	}
}
