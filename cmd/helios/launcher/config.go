package launcher

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/heliosworks/go-helios/chaindb"
	"github.com/heliosworks/go-helios/helios"
	"github.com/heliosworks/go-helios/integration"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node    NodeConfig
	Network NetworkConfig
	Storage StorageConfig
	Logging LoggingConfig
}

// NodeConfig holds the local node instance settings.
type NodeConfig struct {
	DataDir   string
	ChainData string // chaindata DB path, defaults to <datadir>/chaindata
	Name      string
}

// NetworkConfig selects the network rules and the chain account.
type NetworkConfig struct {
	Name       string
	FakeKey    int
	ChainKey   string
	HeadsEvery uint64
	HeadsMax   int
}

// StorageConfig tunes the database.
type StorageConfig struct {
	CacheMB int
	Handles int
	Preset  string
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

func defaultConfig() Config {
	d := DefaultConfig()
	return Config{
		Node: NodeConfig{
			DataDir: resolvePath(d.Node.DataDir),
			Name:    d.Node.Name,
		},
		Network: NetworkConfig{
			Name:       d.Network.Name,
			FakeKey:    d.Network.FakeKey,
			ChainKey:   d.Network.ChainKey,
			HeadsEvery: d.Network.HeadsEvery,
			HeadsMax:   d.Network.HeadsMax,
		},
		Storage: StorageConfig{
			CacheMB: d.Storage.CacheMB,
			Handles: d.Storage.Handles,
			Preset:  d.Storage.Preset,
		},
		Logging: LoggingConfig{
			Verbosity: d.Logging.Verbosity,
			Format:    d.Logging.Format,
			Color:     d.Logging.Color,
			SentryDSN: d.Logging.SentryDSN,
		},
	}
}

// MakeAllConfigs merges defaults, the optional config file and CLI flag
// overrides into a single config struct.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.String("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "loading config file %s", file)
		}
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Node.ChainData == "" {
		cfg.Node.ChainData = filepath.Join(cfg.Node.DataDir, "chaindata")
	}
	if err := ensureDir(cfg.Node.DataDir); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Rules resolves the network rules named by the config.
func (c Config) Rules() (helios.Rules, error) {
	switch c.Network.Name {
	case "main":
		return helios.MainNetRules(), nil
	case "test":
		return helios.TestNetRules(), nil
	case "fake":
		return helios.FakeNetRules(), nil
	default:
		return helios.Rules{}, errors.Errorf("unknown network %q (valid: main, test, fake)", c.Network.Name)
	}
}

// StoreConfig maps the launcher's storage settings onto the chain store.
func (c Config) StoreConfig() chaindb.StoreConfig {
	sc := chaindb.DefaultStoreConfig()
	if preset, err := integration.GetPresetByName(c.Storage.Preset); err == nil {
		sc = preset.StoreConfig()
	}
	sc.Heads.SampleInterval = c.Network.HeadsEvery
	sc.Heads.MaxSamples = c.Network.HeadsMax
	return sc
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, cfg)
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if ctx.IsSet("datadir") {
		cfg.Node.DataDir = resolvePath(ctx.String("datadir"))
	}
	if ctx.IsSet("datadir.chaindata") {
		cfg.Node.ChainData = resolvePath(ctx.String("datadir.chaindata"))
	}
	if ctx.IsSet("identity") {
		cfg.Node.Name = ctx.String("identity")
	}

	if ctx.IsSet("network") {
		cfg.Network.Name = ctx.String("network")
	}
	if ctx.IsSet("fakenet.key") {
		cfg.Network.FakeKey = ctx.Int("fakenet.key")
	}
	if ctx.IsSet("chainkey") {
		cfg.Network.ChainKey = resolvePath(ctx.String("chainkey"))
	}
	if ctx.IsSet("heads.interval") {
		cfg.Network.HeadsEvery = ctx.Uint64("heads.interval")
	}
	if ctx.IsSet("heads.maxsamples") {
		cfg.Network.HeadsMax = ctx.Int("heads.maxsamples")
	}

	if ctx.IsSet("db.preset") {
		preset, err := integration.GetPresetByName(ctx.String("db.preset"))
		if err != nil {
			return err
		}
		cfg.Storage.Preset = preset.Name
		cfg.Storage.CacheMB = preset.CacheMB
	}
	if ctx.IsSet("cache") {
		cfg.Storage.CacheMB = ctx.Int("cache")
	}
	if ctx.IsSet("db.handles") {
		cfg.Storage.Handles = ctx.Int("db.handles")
	}

	if ctx.IsSet("log.format") {
		cfg.Logging.Format = ctx.String("log.format")
	}
	if ctx.IsSet("log.verbosity") {
		cfg.Logging.Verbosity = ctx.Int("log.verbosity")
	}
	if ctx.IsSet("log.color") {
		cfg.Logging.Color = ctx.Bool("log.color")
	}
	if ctx.IsSet("log.sentry") {
		cfg.Logging.SentryDSN = ctx.String("log.sentry")
	}
	return nil
}

func ensureDir(dir string) error {
	return errors.Wrapf(os.MkdirAll(dir, 0o755), "creating datadir %s", dir)
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

// GuessWorkDir returns the current working directory, falling back to ".".
func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// GuessHomeDir returns the user's home directory, falling back to ".".
func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
