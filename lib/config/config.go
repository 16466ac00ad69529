// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Depot services.
//
// Configuration is loaded from a single file specified by:
//   - DEPOT_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// String values may reference environment variables with
// ${VAR} or ${VAR:-default} syntax.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for a Depot service.
type Config struct {
	// Storage configures where artifacts live.
	Storage StorageConfig `yaml:"storage"`

	// Limits bounds incoming artifact fields.
	Limits LimitsConfig `yaml:"limits"`

	// Cache configures the payload read cache.
	Cache CacheConfig `yaml:"cache"`

	// Maintenance configures the background maintenance loop.
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Log configures service logging.
	Log LogConfig `yaml:"log"`
}

// StorageConfig configures the storage tree and the metadata index.
type StorageConfig struct {
	// Root is the base directory. Payloads go under Root/artifacts/,
	// the index database at Root/index.db.
	Root string `yaml:"root"`

	// MaxPayloadSize caps a single serialized payload in bytes.
	// Default: 10485760 (10 MiB).
	MaxPayloadSize int64 `yaml:"max_payload_size"`

	// CompressionThreshold is the serialized size above which
	// payloads are compressed. Default: 1024.
	CompressionThreshold int64 `yaml:"compression_threshold"`

	// Codec is the default compression codec: gzip, zstd, or lz4.
	// Default: gzip.
	Codec string `yaml:"codec"`

	// PoolSize is the index connection pool size. Default: 4.
	PoolSize int `yaml:"pool_size"`

	// TaxonomyFile optionally points to a JSONC file listing known
	// artifact types and categories. Empty means the built-in set.
	TaxonomyFile string `yaml:"taxonomy_file"`
}

// LimitsConfig bounds incoming artifact fields. Zero values take the
// validator defaults.
type LimitsConfig struct {
	MaxIDLength          int `yaml:"max_id_length"`
	MaxTitleLength       int `yaml:"max_title_length"`
	MaxDescriptionLength int `yaml:"max_description_length"`
	MaxMetadataBytes     int `yaml:"max_metadata_bytes"`
	MaxMetadataDepth     int `yaml:"max_metadata_depth"`
	MaxTags              int `yaml:"max_tags"`
}

// CacheConfig configures the payload read cache.
type CacheConfig struct {
	// Capacity is the entry-count bound. Default: 256. Negative
	// disables caching.
	Capacity int `yaml:"capacity"`

	// TTL is how long entries live. Default: 5m.
	TTL time.Duration `yaml:"ttl"`
}

// MaintenanceConfig configures the background maintenance loop.
type MaintenanceConfig struct {
	// Interval between maintenance passes. Default: 1h. Zero or
	// negative disables the loop.
	Interval time.Duration `yaml:"interval"`

	// StatsRetention is how long stats snapshots are kept.
	// Default: 720h (30 days).
	StatsRetention time.Duration `yaml:"stats_retention"`
}

// LogConfig configures service logging.
type LogConfig struct {
	// Level is debug, info, warn, or error. Default: info.
	Level string `yaml:"level"`

	// Format is text or json. Default: text.
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file overrides
// anything. Storage.Root is left empty and must be set by the file or
// a flag.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			MaxPayloadSize:       10 << 20,
			CompressionThreshold: 1024,
			Codec:                "gzip",
			PoolSize:             4,
		},
		Cache: CacheConfig{
			Capacity: 256,
			TTL:      5 * time.Minute,
		},
		Maintenance: MaintenanceConfig{
			Interval:       time.Hour,
			StatsRetention: 30 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the file named by the DEPOT_CONFIG
// environment variable.
func Load() (*Config, error) {
	path := os.Getenv("DEPOT_CONFIG")
	if path == "" {
		return nil, errors.New("DEPOT_CONFIG is not set; pass --config or set the variable")
	}
	return LoadFile(path)
}

// LoadFile reads configuration from an explicit path. Values absent
// from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	config.expandVariables()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// expandVariables resolves ${VAR} and ${VAR:-default} references in
// path-valued fields against the process environment.
func (c *Config) expandVariables() {
	vars := map[string]string{}
	for _, entry := range os.Environ() {
		for i := 0; i < len(entry); i++ {
			if entry[i] == '=' {
				vars[entry[:i]] = entry[i+1:]
				break
			}
		}
	}
	c.Storage.Root = expandVars(c.Storage.Root, vars)
	c.Storage.TaxonomyFile = expandVars(c.Storage.TaxonomyFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := varPattern.FindStringSubmatch(match)
		name, fallback := groups[1], groups[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		return fallback
	})
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return errors.New("storage.root is required")
	}
	switch c.Storage.Codec {
	case "gzip", "zstd", "lz4":
	default:
		return fmt.Errorf("storage.codec %q is not one of gzip, zstd, lz4", c.Storage.Codec)
	}
	if c.Storage.MaxPayloadSize <= 0 {
		return errors.New("storage.max_payload_size must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	return nil
}
