package launcher

// Defaults bundles the baseline configuration values the launcher uses before
// the config file and CLI flags override them.
type Defaults struct {
	Node    NodeDefaults
	Network NetworkDefaults
	Storage StorageDefaults
	Logging LoggingDefaults
}

// NodeDefaults captures top-level node settings.
type NodeDefaults struct {
	DataDir string // filesystem root for chaindata and keys
	Name    string // node identity used in logs
}

// NetworkDefaults selects the network rules and the local chain account.
type NetworkDefaults struct {
	Name       string // network preset: main, test or fake
	FakeKey    int    // deterministic key index on fake networks
	ChainKey   string // path to the hex-encoded chain signing key
	HeadsEvery uint64 // minimum seconds between head history samples
	HeadsMax   int    // retained head history samples per account
}

// StorageDefaults configures database and cache behaviour.
type StorageDefaults struct {
	CacheMB int    // memory reserved for database caches
	Handles int    // file handles available to the database
	Preset  string // storage preset name
}

// LoggingDefaults controls log verbosity and destinations.
type LoggingDefaults struct {
	Verbosity int    // 0=fatal .. 5=trace
	Format    string // text or json
	Color     bool
	SentryDSN string // error reporting endpoint, disabled when empty
}

// DefaultConfig returns a fully populated Defaults instance.
func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			DataDir: "~/.helios",
			Name:    "go-helios",
		},
		Network: NetworkDefaults{
			Name:       "main",
			FakeKey:    1,
			HeadsEvery: 1000,
			HeadsMax:   1000,
		},
		Storage: StorageDefaults{
			CacheMB: 1024,
			Handles: 512,
			Preset:  "default",
		},
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     true,
		},
	}
}
