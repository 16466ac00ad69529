// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Storage.Codec != "gzip" {
		t.Errorf("expected codec=gzip, got %s", cfg.Storage.Codec)
	}
	if cfg.Storage.MaxPayloadSize != 10<<20 {
		t.Errorf("expected max_payload_size=10MiB, got %d", cfg.Storage.MaxPayloadSize)
	}
	if cfg.Cache.Capacity != 256 || cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
}

func TestLoad_RequiresDepotConfig(t *testing.T) {
	t.Setenv("DEPOT_CONFIG", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DEPOT_CONFIG not set, got nil")
	}
}

func TestLoadFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "depot.yaml")
	configContent := `
storage:
  root: /var/lib/depot
  codec: zstd
  compression_threshold: 2048
cache:
  capacity: 64
  ttl: 30s
maintenance:
  interval: 15m
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Storage.Root != "/var/lib/depot" {
		t.Errorf("root = %s", cfg.Storage.Root)
	}
	if cfg.Storage.Codec != "zstd" {
		t.Errorf("codec = %s", cfg.Storage.Codec)
	}
	if cfg.Storage.CompressionThreshold != 2048 {
		t.Errorf("compression_threshold = %d", cfg.Storage.CompressionThreshold)
	}
	// Values absent from the file keep their defaults.
	if cfg.Storage.MaxPayloadSize != 10<<20 {
		t.Errorf("max_payload_size = %d", cfg.Storage.MaxPayloadSize)
	}
	if cfg.Cache.Capacity != 64 || cfg.Cache.TTL != 30*time.Second {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Maintenance.Interval != 15*time.Minute {
		t.Errorf("maintenance interval = %v", cfg.Maintenance.Interval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %s", cfg.Log.Level)
	}
}

func TestLoadFileExpandsVariables(t *testing.T) {
	t.Setenv("DEPOT_DATA", "/srv/depot-data")

	configPath := filepath.Join(t.TempDir(), "depot.yaml")
	configContent := `
storage:
  root: ${DEPOT_DATA}/store
  taxonomy_file: ${DEPOT_TAXONOMY:-/etc/depot/taxonomy.jsonc}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Storage.Root != "/srv/depot-data/store" {
		t.Errorf("root = %s", cfg.Storage.Root)
	}
	if cfg.Storage.TaxonomyFile != "/etc/depot/taxonomy.jsonc" {
		t.Errorf("taxonomy_file = %s", cfg.Storage.TaxonomyFile)
	}
}

func TestExpandVars(t *testing.T) {
	vars := map[string]string{"HOME": "/home/depot"}

	tests := []struct {
		in, want string
	}{
		{"${HOME}/data", "/home/depot/data"},
		{"${MISSING:-/fallback}", "/fallback"},
		{"${MISSING}", ""},
		{"no variables", "no variables"},
	}
	for _, test := range tests {
		if got := expandVars(test.in, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Storage.Root = "/var/lib/depot"
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	missingRoot := Default()
	if err := missingRoot.Validate(); err == nil {
		t.Error("empty storage.root accepted")
	}

	badCodec := Default()
	badCodec.Storage.Root = "/var/lib/depot"
	badCodec.Storage.Codec = "brotli"
	if err := badCodec.Validate(); err == nil {
		t.Error("unknown codec accepted")
	}

	badLevel := Default()
	badLevel.Storage.Root = "/var/lib/depot"
	badLevel.Log.Level = "verbose"
	if err := badLevel.Validate(); err == nil {
		t.Error("unknown log level accepted")
	}
}
