// Package config loads walletcore settings from defaults, an optional YAML
// file, command-line flags and WALLETCORE_* environment variables, in that
// order of precedence (later wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/walletcore/ledgerbridge-go/pkg/bridge"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/rpc"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WALLETCORE_"

// Settings is the resolved configuration.
type Settings struct {
	Keystore      string        `yaml:"keystore"`
	Store         string        `yaml:"store"`
	Endpoint      string        `yaml:"endpoint"`
	QueueCapacity int           `yaml:"queue_capacity"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
	RPCTimeout    time.Duration `yaml:"rpc_timeout"`
	LogLevel      string        `yaml:"log_level"`
}

// Options selects the sources Load reads beyond the defaults.
type Options struct {
	// Fs is used to probe for config files. Nil selects the OS filesystem.
	Fs afero.Fs

	// File is an explicit config file. When empty the default locations
	// are probed and the first existing one is read.
	File string

	// Flags are applied over the file. Only flags the user changed are
	// taken into account.
	Flags *pflag.FlagSet

	// SkipFiles disables config files entirely.
	SkipFiles bool
}

// Defaults returns the default settings as config keys.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"keystore":       "",
		"store":          "",
		"endpoint":       "testnet",
		"queue_capacity": bridge.DefaultQueueCapacity,
		"call_timeout":   bridge.DefaultCallTimeout.String(),
		"rpc_timeout":    rpc.DefaultTimeout.String(),
		"log_level":      "info",
	}
}

// DefaultPaths lists the config files probed when Options.File is empty.
func DefaultPaths() []string {
	paths := []string{"walletcore.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append([]string{filepath.Join(home, ".config", "walletcore", "config.yaml")}, paths...)
	}
	return paths
}

// Load resolves settings from every source in opts.
func Load(opts Options) (Settings, error) {
	k := koanf.New(".")
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Settings{}, fmt.Errorf("config: loading defaults: %w", err)
	}

	if !opts.SkipFiles {
		if err := loadFile(k, opts); err != nil {
			return Settings{}, err
		}
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithValue(opts.Flags, ".", k, mapFlag), nil); err != nil {
			return Settings{}, fmt.Errorf("config: loading flags: %w", err)
		}
	}

	envOpts := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envOpts, nil); err != nil {
		return Settings{}, fmt.Errorf("config: loading env: %w", err)
	}

	s := Settings{
		Keystore:      k.String("keystore"),
		Store:         k.String("store"),
		Endpoint:      k.String("endpoint"),
		QueueCapacity: k.Int("queue_capacity"),
		CallTimeout:   k.Duration("call_timeout"),
		RPCTimeout:    k.Duration("rpc_timeout"),
		LogLevel:      k.String("log_level"),
	}
	return s, s.validate()
}

// FromEnv resolves settings from the defaults and the environment only.
func FromEnv() (Settings, error) {
	return Load(Options{SkipFiles: true})
}

func loadFile(k *koanf.Koanf, opts Options) error {
	if opts.File != "" {
		if exists, _ := afero.Exists(opts.Fs, opts.File); !exists {
			return fmt.Errorf("config: file %s not found", opts.File)
		}
		return readFile(k, opts.Fs, opts.File)
	}
	for _, p := range DefaultPaths() {
		if exists, _ := afero.Exists(opts.Fs, p); exists {
			return readFile(k, opts.Fs, p)
		}
	}
	return nil
}

func readFile(k *koanf.Koanf, fs afero.Fs, path string) error {
	if _, ok := fs.(*afero.OsFs); ok {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("config: reading %s: %w", path, err)
		}
		return nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// mapFlag maps dashed flag names onto config keys.
func mapFlag(key string, value string) (string, interface{}) {
	switch key {
	case "queue-capacity":
		return "queue_capacity", value
	case "timeout", "call-timeout":
		return "call_timeout", value
	case "rpc-timeout":
		return "rpc_timeout", value
	case "log-level":
		return "log_level", value
	case "keystore", "store", "endpoint":
		return key, value
	default:
		return "", nil
	}
}

func (s Settings) validate() error {
	if s.QueueCapacity <= 0 {
		return fmt.Errorf("config: queue_capacity must be positive, got %d", s.QueueCapacity)
	}
	if s.CallTimeout <= 0 {
		return fmt.Errorf("config: call_timeout must be positive")
	}
	if s.RPCTimeout <= 0 {
		return fmt.Errorf("config: rpc_timeout must be positive")
	}
	return nil
}

// BridgeConfig converts s into a bridge configuration.
func (s Settings) BridgeConfig() bridge.Config {
	return bridge.Config{
		KeystorePath:  s.Keystore,
		StorePath:     s.Store,
		Endpoint:      s.Endpoint,
		RPCTimeout:    s.RPCTimeout,
		QueueCapacity: s.QueueCapacity,
		CallTimeout:   s.CallTimeout,
	}
}
