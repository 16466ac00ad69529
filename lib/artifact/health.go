// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"

	"github.com/depot-foundation/depot/lib/blobstore"
)

// HealthStatus grades service health.
type HealthStatus string

const (
	// HealthHealthy means both the index and the storage tree answer.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded means the index answers but the storage tree
	// does not. Records resolve; payload reads will fail.
	HealthDegraded HealthStatus = "degraded"

	// HealthUnhealthy means the index does not answer. Nothing
	// resolves without it, whatever the storage tree's state.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Health is a point-in-time health report.
type Health struct {
	Status HealthStatus

	// IndexError and StorageError carry the failing check's error,
	// nil when the check passed.
	IndexError   error
	StorageError error

	// Storage is the tree summary, populated when the storage check
	// passed.
	Storage *blobstore.StorageStats
}

// HealthCheck probes both halves of the store. The index is the
// gating dependency: its failure makes the service unhealthy, while a
// storage-only failure degrades it.
func (s *Service) HealthCheck(ctx context.Context) Health {
	health := Health{Status: HealthHealthy}

	if err := s.index.Healthy(ctx); err != nil {
		health.Status = HealthUnhealthy
		health.IndexError = err
	}

	storageStats, err := s.blobs.StorageStats()
	if err != nil {
		health.StorageError = err
		if health.Status == HealthHealthy {
			health.Status = HealthDegraded
		}
	} else {
		health.Storage = &storageStats
	}

	return health
}
