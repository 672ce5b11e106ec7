// Package config loads the TOML configuration of importq.
package config

import (
	"net"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
)

const (
	StoreMemory = "memory"
	StoreJSON   = "json"
	StoreSQLite = "sqlite"

	defaultLogLevel      = "info"
	defaultStoreKind     = StoreMemory
	defaultServerAddr    = "127.0.0.1:8250"
	defaultModel         = "gemini-2.5-flash"
	defaultAPIKeyEnv     = "GEMINI_API_KEY"
	defaultMaxSampleRows = 10
)

// StoreConfig selects the table store backend
type StoreConfig struct {
	Kind string `toml:"kind" json:"kind"`
	// Path is a directory for json and a database file for sqlite
	Path string `toml:"path" json:"path"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`
}

// InsightsConfig configures result summaries
type InsightsConfig struct {
	Enabled       bool   `toml:"enabled" json:"enabled"`
	Model         string `toml:"model" json:"model"`
	APIKeyEnv     string `toml:"api-key-env" json:"api-key-env"`
	MaxSampleRows int    `toml:"max-sample-rows" json:"max-sample-rows"`
}

// APIKey reads the key from the configured environment variable
func (c *InsightsConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// QueryConfig limits query evaluation
type QueryConfig struct {
	// MaxRows caps returned rows; 0 means unlimited
	MaxRows int `toml:"max-rows" json:"max-rows"`
}

// Config is the configuration of all importq commands
type Config struct {
	LogLevel string `toml:"log-level" json:"log-level"`
	SeqURL   string `toml:"seq-url" json:"seq-url"`

	Store    StoreConfig    `toml:"store" json:"store"`
	Server   ServerConfig   `toml:"server" json:"server"`
	Insights InsightsConfig `toml:"insights" json:"insights"`
	Query    QueryConfig    `toml:"query" json:"query"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.adjust()
	return cfg
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Annotatef(err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("config %s contains unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.adjust()
	return cfg, nil
}

// adjust fills zero values with defaults
func (cfg *Config) adjust() {
	adjustString(&cfg.LogLevel, defaultLogLevel)
	adjustString(&cfg.Store.Kind, defaultStoreKind)
	adjustString(&cfg.Server.Addr, defaultServerAddr)
	adjustString(&cfg.Insights.Model, defaultModel)
	adjustString(&cfg.Insights.APIKeyEnv, defaultAPIKeyEnv)
	adjustInt(&cfg.Insights.MaxSampleRows, defaultMaxSampleRows)

	if cfg.Store.Path == "" {
		switch cfg.Store.Kind {
		case StoreJSON:
			cfg.Store.Path = "data"
		case StoreSQLite:
			cfg.Store.Path = "importq.db"
		}
	}
}

func adjustString(v *string, defValue string) {
	if len(*v) == 0 {
		*v = defValue
	}
}

func adjustInt(v *int, defValue int) {
	if *v == 0 {
		*v = defValue
	}
}

// Validate checks whether the configuration is usable
func (cfg *Config) Validate() error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("invalid log-level %q: want debug, info, warn or error", cfg.LogLevel)
	}

	switch cfg.Store.Kind {
	case StoreMemory:
	case StoreJSON, StoreSQLite:
		if cfg.Store.Path == "" {
			return errors.Errorf("store kind %s requires a path", cfg.Store.Kind)
		}
	default:
		return errors.Errorf("invalid store kind %q: want memory, json or sqlite", cfg.Store.Kind)
	}

	if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
		return errors.Errorf("bad server addr format: %s, %v", cfg.Server.Addr, err)
	}

	if cfg.Query.MaxRows < 0 {
		return errors.Errorf("query max-rows must not be negative, got %d", cfg.Query.MaxRows)
	}
	if cfg.Insights.MaxSampleRows < 0 {
		return errors.Errorf("insights max-sample-rows must not be negative, got %d", cfg.Insights.MaxSampleRows)
	}
	return nil
}

// Adjust re-applies defaults after flags have changed fields
func (cfg *Config) Adjust() {
	cfg.adjust()
}
