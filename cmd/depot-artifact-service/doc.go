// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Depot-artifact-service opens an artifact store and keeps it
// maintained. The store itself is the [artifact.Service] library;
// this binary adds configuration loading, logging setup, and the
// background maintenance loop that embedding applications would
// otherwise have to run themselves.
//
// # Configuration
//
// A single YAML file, named by --config or the DEPOT_CONFIG
// environment variable, configures the storage root, payload limits,
// compression codec, read cache, and maintenance cadence. --root
// overrides the storage root for quick local runs.
//
// # Maintenance
//
// On each maintenance tick the service captures a catalog stats
// snapshot into the index's history table and prunes snapshots past
// the retention window. The loop stops cleanly on SIGINT or SIGTERM.
package main
