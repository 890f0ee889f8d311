// Package integration provides configuration presets for assembling the node
// runtime. Presets bundle storage settings into named profiles so operators
// can spin up nodes for different workloads without tuning individual flags.
package integration

import (
	"github.com/pkg/errors"

	"github.com/heliosworks/go-helios/chaindb"
)

// PresetConfig captures the tunable parameters that vary across profiles.
type PresetConfig struct {
	Name        string // profile identifier, surfaced in logs and config dumps
	CacheMB     int    // memory reserved for database caches
	Handles     int    // file handles available to the database
	HeaderCache int    // in-memory header cache entries
	BlockCache  int    // in-memory block cache entries
}

// DefaultPreset returns the balanced profile used when no preset is named.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:        "default",
		CacheMB:     1024,
		Handles:     512,
		HeaderCache: 2048,
		BlockCache:  256,
	}
}

// LitePreset fits constrained environments: small caches, fast startup.
// Suitable for development machines and CI, not for serving traffic.
func LitePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "lite"
	cfg.CacheMB = 256
	cfg.Handles = 128
	cfg.HeaderCache = 512
	cfg.BlockCache = 64
	return cfg
}

// FullPreset targets production nodes serving many account chains.
func FullPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "full"
	cfg.CacheMB = 4096
	cfg.Handles = 1024
	cfg.HeaderCache = 8192
	cfg.BlockCache = 1024
	return cfg
}

// ArchivePreset targets explorers and analytics nodes that read deep chain
// history, at the price of a substantially larger memory footprint.
func ArchivePreset() PresetConfig {
	cfg := FullPreset()
	cfg.Name = "archive"
	cfg.CacheMB = 8192
	cfg.HeaderCache = 16384
	cfg.BlockCache = 4096
	return cfg
}

// GetPresetByName looks up a preset by its identifier.
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "lite":
		return LitePreset(), nil
	case "full":
		return FullPreset(), nil
	case "archive":
		return ArchivePreset(), nil
	case "default":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, errors.Errorf("unknown preset: %q (valid: lite, default, full, archive)", name)
	}
}

// StoreConfig maps the preset onto the chain store configuration.
func (p PresetConfig) StoreConfig() chaindb.StoreConfig {
	cfg := chaindb.DefaultStoreConfig()
	cfg.HeaderCacheSize = p.HeaderCache
	cfg.BlockCacheSize = p.BlockCache
	return cfg
}
