// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package metaindex

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/depot-foundation/depot/lib/codec"
)

// Stats summarizes the catalog. Sizes come from the index's file_size
// projection, not from walking the storage tree.
type Stats struct {
	TotalArtifacts     int64            `cbor:"total_artifacts"`
	ByType             map[string]int64 `cbor:"by_type"`
	ByCategory         map[string]int64 `cbor:"by_category"`
	TotalSize          int64            `cbor:"total_size"`
	AverageAccessCount float64          `cbor:"average_access_count"`
}

// StatsSnapshot is one point in the stats history.
type StatsSnapshot struct {
	CapturedAt time.Time
	Stats      Stats
}

// Stats computes current catalog statistics.
func (x *Index) Stats(ctx context.Context) (*Stats, error) {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("metadata index: stats: %w", err)
	}
	defer x.pool.Put(conn)

	stats := &Stats{
		ByType:     make(map[string]int64),
		ByCategory: make(map[string]int64),
	}

	err = sqlitex.Execute(conn,
		"SELECT COUNT(*), COALESCE(SUM(file_size), 0), COALESCE(AVG(access_count), 0) FROM artifacts",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				stats.TotalArtifacts = stmt.ColumnInt64(0)
				stats.TotalSize = stmt.ColumnInt64(1)
				stats.AverageAccessCount = stmt.ColumnFloat(2)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("metadata index: stats totals: %w", err)
	}

	err = sqlitex.Execute(conn, "SELECT type, COUNT(*) FROM artifacts GROUP BY type",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				stats.ByType[stmt.ColumnText(0)] = stmt.ColumnInt64(1)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("metadata index: stats by type: %w", err)
	}

	err = sqlitex.Execute(conn, "SELECT category, COUNT(*) FROM artifacts GROUP BY category",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				stats.ByCategory[stmt.ColumnText(0)] = stmt.ColumnInt64(1)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("metadata index: stats by category: %w", err)
	}

	return stats, nil
}

// CaptureStatsSnapshot computes current stats and appends them to the
// stats history. Snapshots use deterministic CBOR so identical catalog
// states encode identically.
func (x *Index) CaptureStatsSnapshot(ctx context.Context) error {
	stats, err := x.Stats(ctx)
	if err != nil {
		return err
	}

	encoded, err := codec.Marshal(stats)
	if err != nil {
		return fmt.Errorf("metadata index: encode stats snapshot: %w", err)
	}

	conn, err := x.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("metadata index: capture stats snapshot: %w", err)
	}
	defer x.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT OR REPLACE INTO stats_history (captured_at, snapshot) VALUES (?, ?)",
		&sqlitex.ExecOptions{Args: []any{x.clock.Now().UnixNano(), encoded}})
	if err != nil {
		return fmt.Errorf("metadata index: capture stats snapshot: %w", err)
	}
	return nil
}

// StatsHistory returns up to limit snapshots, newest first.
func (x *Index) StatsHistory(ctx context.Context, limit int) ([]StatsSnapshot, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	conn, err := x.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("metadata index: stats history: %w", err)
	}
	defer x.pool.Put(conn)

	var snapshots []StatsSnapshot
	err = sqlitex.Execute(conn,
		"SELECT captured_at, snapshot FROM stats_history ORDER BY captured_at DESC LIMIT ?",
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				encoded := make([]byte, stmt.ColumnLen(1))
				stmt.ColumnBytes(1, encoded)

				var stats Stats
				if err := codec.Unmarshal(encoded, &stats); err != nil {
					return fmt.Errorf("corrupt stats snapshot: %w", err)
				}
				snapshots = append(snapshots, StatsSnapshot{
					CapturedAt: time.Unix(0, stmt.ColumnInt64(0)).UTC(),
					Stats:      stats,
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("metadata index: stats history: %w", err)
	}
	return snapshots, nil
}

// PruneStatsHistory removes snapshots older than maxAge. Returns the
// number removed.
func (x *Index) PruneStatsHistory(ctx context.Context, maxAge time.Duration) (int, error) {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("metadata index: prune stats history: %w", err)
	}
	defer x.pool.Put(conn)

	cutoff := x.clock.Now().Add(-maxAge).UnixNano()
	err = sqlitex.Execute(conn, "DELETE FROM stats_history WHERE captured_at < ?",
		&sqlitex.ExecOptions{Args: []any{cutoff}})
	if err != nil {
		return 0, fmt.Errorf("metadata index: prune stats history: %w", err)
	}
	return conn.Changes(), nil
}
