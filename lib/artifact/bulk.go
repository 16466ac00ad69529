// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBulkConcurrency bounds parallel items in bulk operations.
// Payload writes are filesystem-bound and index writes serialize on
// SQLite's single writer, so a small fan-out captures most of the
// available parallelism.
const DefaultBulkConcurrency = 8

// BulkResult reports one item of a bulk operation. Exactly one of
// Record and Err is set for creates; deletes set only ID and Err.
type BulkResult struct {
	ID     string
	Record *Record
	Err    error
}

// BulkCreate creates many artifacts with bounded concurrency. Each
// item succeeds or fails on its own: one invalid request never aborts
// the rest. Results arrive in request order; Succeeded counts the
// items with no error.
func (s *Service) BulkCreate(ctx context.Context, requests []CreateRequest) ([]BulkResult, int) {
	results := make([]BulkResult, len(requests))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.bulkConcurrency)
	for i, request := range requests {
		group.Go(func() error {
			record, err := s.Create(groupCtx, request)
			results[i] = BulkResult{ID: request.ID, Record: record, Err: err}
			return nil
		})
	}
	// Workers never return errors; per-item failures live in results.
	group.Wait()

	return results, countSucceeded(results)
}

// BulkDelete deletes many artifacts with bounded concurrency and
// per-item failure isolation. Results arrive in request order.
func (s *Service) BulkDelete(ctx context.Context, ids []string) ([]BulkResult, int) {
	results := make([]BulkResult, len(ids))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.bulkConcurrency)
	for i, id := range ids {
		group.Go(func() error {
			results[i] = BulkResult{ID: id, Err: s.Delete(groupCtx, id)}
			return nil
		})
	}
	group.Wait()

	return results, countSucceeded(results)
}

func countSucceeded(results []BulkResult) int {
	succeeded := 0
	for _, result := range results {
		if result.Err == nil {
			succeeded++
		}
	}
	return succeeded
}
