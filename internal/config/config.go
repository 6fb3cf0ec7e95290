// Package config loads vectordb's configuration: a YAML file layered
// under environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the complete vectordb configuration.
type Config struct {
	DataDir            string             `yaml:"data_dir" json:"data_dir"`
	CollectionDefaults CollectionDefaults `yaml:"collection_defaults" json:"collection_defaults"`
	Logging            LoggingConfig      `yaml:"logging" json:"logging"`
}

// CollectionDefaults are the default index parameters applied when a
// collection attaches an index without explicit overrides. These mirror
// the per-index-type knobs (k_c, n_probe, M, ef_*) and are
// not exposed over any wire protocol — only add_index consumes them.
type CollectionDefaults struct {
	KC             int    `yaml:"kc" json:"kc"`
	NProbe         int    `yaml:"n_probe" json:"n_probe"`
	M              int    `yaml:"m" json:"m"`
	EfConstruction int    `yaml:"ef_construction" json:"ef_construction"`
	EfSearch       int    `yaml:"ef_search" json:"ef_search"`
	Seed           uint64 `yaml:"seed" json:"seed"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"` // debug, info, warn, error
	File  string `yaml:"file" json:"file"`   // empty means stderr only
}

// configFileName is the config file Load looks for in the directory it
// is given (vectordbctl passes its data-dir argument).
const configFileName = "vectordb.yaml"

// New returns a Config populated with sensible defaults.
func New() *Config {
	return &Config{
		DataDir: "./data",
		CollectionDefaults: CollectionDefaults{
			// Zero values here mean "let the index compute its own
			// default from n" (see internal/index); KC=0, NProbe=0 are
			// meaningful, not missing.
			M:              8,
			EfConstruction: 32,
			EfSearch:       32,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds a Config by starting from defaults, merging a YAML file
// found at dir/vectordb.yaml (if any), then applying environment
// variable overrides (highest precedence).
func Load(dir string) (*Config, error) {
	cfg := New()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	path := filepath.Join(dir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.CollectionDefaults.KC != 0 {
		c.CollectionDefaults.KC = other.CollectionDefaults.KC
	}
	if other.CollectionDefaults.NProbe != 0 {
		c.CollectionDefaults.NProbe = other.CollectionDefaults.NProbe
	}
	if other.CollectionDefaults.M != 0 {
		c.CollectionDefaults.M = other.CollectionDefaults.M
	}
	if other.CollectionDefaults.EfConstruction != 0 {
		c.CollectionDefaults.EfConstruction = other.CollectionDefaults.EfConstruction
	}
	if other.CollectionDefaults.EfSearch != 0 {
		c.CollectionDefaults.EfSearch = other.CollectionDefaults.EfSearch
	}
	if other.CollectionDefaults.Seed != 0 {
		c.CollectionDefaults.Seed = other.CollectionDefaults.Seed
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VECTORDB_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("VECTORDB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VECTORDB_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("VECTORDB_KC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CollectionDefaults.KC = n
		}
	}
	if v := os.Getenv("VECTORDB_N_PROBE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CollectionDefaults.NProbe = n
		}
	}
	if v := os.Getenv("VECTORDB_M"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CollectionDefaults.M = n
		}
	}
	if v := os.Getenv("VECTORDB_EF_CONSTRUCTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CollectionDefaults.EfConstruction = n
		}
	}
	if v := os.Getenv("VECTORDB_EF_SEARCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CollectionDefaults.EfSearch = n
		}
	}
	if v := os.Getenv("VECTORDB_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.CollectionDefaults.Seed = n
		}
	}
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}
	if c.CollectionDefaults.KC < 0 || c.CollectionDefaults.NProbe < 0 ||
		c.CollectionDefaults.M < 0 || c.CollectionDefaults.EfConstruction < 0 ||
		c.CollectionDefaults.EfSearch < 0 {
		return fmt.Errorf("collection_defaults fields must not be negative")
	}
	return nil
}

// WriteYAML serializes c and writes it to path, for a deployer to
// generate a starting config file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
