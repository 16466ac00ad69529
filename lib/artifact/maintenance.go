// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"time"
)

// Verify re-reads the payload for id from disk, bypassing the read
// cache, and reports whether its bytes still match the indexed
// checksum.
func (s *Service) Verify(ctx context.Context, id string) error {
	row, err := s.index.Get(ctx, id)
	if err != nil {
		return &StorageError{Op: "verify", ID: id, Err: err}
	}
	if row == nil {
		return &NotFoundError{ID: id}
	}
	return s.blobs.Validate(row.Pointer())
}

// PruneStatsHistory removes stats snapshots older than maxAge,
// returning the number removed.
func (s *Service) PruneStatsHistory(ctx context.Context, maxAge time.Duration) (int, error) {
	pruned, err := s.index.PruneStatsHistory(ctx, maxAge)
	if err != nil {
		return 0, &StorageError{Op: "prune stats history", ID: "", Err: err}
	}
	return pruned, nil
}
