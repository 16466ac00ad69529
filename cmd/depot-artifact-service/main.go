// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/lib/artifact"
	"github.com/depot-foundation/depot/lib/blobstore"
	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/config"
	"github.com/depot-foundation/depot/lib/validate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "depot-artifact-service:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var storageRoot string
	pflag.StringVar(&configPath, "config", "", "path to the service configuration file")
	pflag.StringVar(&storageRoot, "root", "", "storage root (overrides the config file)")
	pflag.Parse()

	cfg, err := loadConfig(configPath, storageRoot)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	codec, err := blobstore.ParseCompressionTag(cfg.Storage.Codec)
	if err != nil {
		return err
	}

	validator, err := newValidator(cfg)
	if err != nil {
		return err
	}

	service, err := artifact.Open(artifact.Config{
		Root:                 cfg.Storage.Root,
		MaxPayloadSize:       cfg.Storage.MaxPayloadSize,
		CompressionThreshold: cfg.Storage.CompressionThreshold,
		Codec:                codec,
		CacheCapacity:        cfg.Cache.Capacity,
		CacheTTL:             cfg.Cache.TTL,
		PoolSize:             cfg.Storage.PoolSize,
		Validator:            validator,
		Clock:                clock.Real(),
		Logger:               logger,
	})
	if err != nil {
		return err
	}
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := service.HealthCheck(ctx)
	if health.Status == artifact.HealthUnhealthy {
		return fmt.Errorf("store unhealthy at startup: %v", health.IndexError)
	}
	logger.Info("artifact store open",
		"root", cfg.Storage.Root,
		"status", string(health.Status),
		"codec", cfg.Storage.Codec,
	)

	maintenanceDone := make(chan struct{})
	go func() {
		defer close(maintenanceDone)
		runMaintenance(ctx, service, cfg.Maintenance, logger)
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	<-maintenanceDone
	return nil
}

func loadConfig(configPath, storageRoot string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case configPath != "":
		cfg, err = config.LoadFile(configPath)
	case os.Getenv("DEPOT_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
		if storageRoot == "" {
			return nil, fmt.Errorf("no configuration: pass --config, set DEPOT_CONFIG, or pass --root")
		}
	}
	if err != nil {
		return nil, err
	}
	if storageRoot != "" {
		cfg.Storage.Root = storageRoot
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, options)
	} else {
		handler = slog.NewTextHandler(os.Stderr, options)
	}
	return slog.New(handler), nil
}

func newValidator(cfg *config.Config) (*validate.Validator, error) {
	limits := validate.DefaultLimits()
	if cfg.Limits.MaxIDLength > 0 {
		limits.MaxIDLength = cfg.Limits.MaxIDLength
	}
	if cfg.Limits.MaxTitleLength > 0 {
		limits.MaxTitleLength = cfg.Limits.MaxTitleLength
	}
	if cfg.Limits.MaxDescriptionLength > 0 {
		limits.MaxDescriptionLength = cfg.Limits.MaxDescriptionLength
	}
	if cfg.Limits.MaxMetadataBytes > 0 {
		limits.MaxMetadataBytes = cfg.Limits.MaxMetadataBytes
	}
	if cfg.Limits.MaxMetadataDepth > 0 {
		limits.MaxMetadataDepth = cfg.Limits.MaxMetadataDepth
	}
	if cfg.Limits.MaxTags > 0 {
		limits.MaxTags = cfg.Limits.MaxTags
	}

	taxonomy := validate.DefaultTaxonomy()
	if cfg.Storage.TaxonomyFile != "" {
		loaded, err := validate.ReadTaxonomy(cfg.Storage.TaxonomyFile)
		if err != nil {
			return nil, fmt.Errorf("loading taxonomy: %w", err)
		}
		taxonomy = loaded
	}
	return validate.New(limits, taxonomy), nil
}

// runMaintenance periodically captures a stats snapshot and prunes
// snapshots past the retention window. It returns when ctx is
// cancelled.
func runMaintenance(ctx context.Context, service *artifact.Service, cfg config.MaintenanceConfig, logger *slog.Logger) {
	if cfg.Interval <= 0 {
		logger.Info("maintenance loop disabled")
		return
	}

	ticker := clock.Real().NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := service.CaptureStatsSnapshot(ctx); err != nil {
			logger.Error("stats snapshot failed", "error", err)
		}
		if cfg.StatsRetention > 0 {
			pruned, err := service.PruneStatsHistory(ctx, cfg.StatsRetention)
			if err != nil {
				logger.Error("stats history prune failed", "error", err)
			} else if pruned > 0 {
				logger.Info("stats history pruned", "removed", pruned)
			}
		}
	}
}
