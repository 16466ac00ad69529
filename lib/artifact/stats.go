// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"sort"

	"github.com/depot-foundation/depot/lib/metaindex"
)

// HighPriorityFloor is the exclusive lower bound for the
// highest-priority listing in stats.
const HighPriorityFloor = 7

// statsListLimit caps each derived listing in Stats.
const statsListLimit = 10

// TagCount is one entry in the tag frequency listing.
type TagCount struct {
	Tag   string
	Count int
}

// Stats is the catalog summary: index aggregates plus derived
// listings.
type Stats struct {
	TotalArtifacts     int64
	ByType             map[string]int64
	ByCategory         map[string]int64
	TotalSize          int64
	AverageAccessCount float64

	// TopTags lists the most frequent tags, descending, ties broken
	// by tag name.
	TopTags []TagCount

	// Recent lists the newest artifacts by creation time.
	Recent []*Record

	// HighPriority lists artifacts with priority above
	// HighPriorityFloor, highest first.
	HighPriority []*Record
}

// Stats computes the catalog summary.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	indexStats, err := s.index.Stats(ctx)
	if err != nil {
		return nil, &StorageError{Op: "stats", ID: "", Err: err}
	}

	stats := &Stats{
		TotalArtifacts:     indexStats.TotalArtifacts,
		ByType:             indexStats.ByType,
		ByCategory:         indexStats.ByCategory,
		TotalSize:          indexStats.TotalSize,
		AverageAccessCount: indexStats.AverageAccessCount,
	}

	recentRows, err := s.index.Search(ctx, metaindex.Query{
		OrderBy: "created_at",
		Limit:   statsListLimit,
	})
	if err != nil {
		return nil, &StorageError{Op: "stats", ID: "", Err: err}
	}
	for _, row := range recentRows {
		record, err := recordFromRow(row)
		if err != nil {
			return nil, &StorageError{Op: "stats", ID: row.ID, Err: err}
		}
		stats.Recent = append(stats.Recent, record)
	}

	priorityRows, err := s.index.Search(ctx, metaindex.Query{
		OrderBy: "priority",
		Limit:   statsListLimit,
	})
	if err != nil {
		return nil, &StorageError{Op: "stats", ID: "", Err: err}
	}
	for _, row := range priorityRows {
		if row.Priority <= HighPriorityFloor {
			continue
		}
		record, err := recordFromRow(row)
		if err != nil {
			return nil, &StorageError{Op: "stats", ID: row.ID, Err: err}
		}
		stats.HighPriority = append(stats.HighPriority, record)
	}

	topTags, err := s.topTags(ctx)
	if err != nil {
		return nil, err
	}
	stats.TopTags = topTags

	return stats, nil
}

// topTags computes tag frequencies across the whole catalog. Tag sets
// are small (50 per artifact at most), so counting in memory over one
// index scan beats maintaining a separate frequency table.
func (s *Service) topTags(ctx context.Context) ([]TagCount, error) {
	rows, err := s.index.Search(ctx, metaindex.Query{Limit: int(^uint(0) >> 1)})
	if err != nil {
		return nil, &StorageError{Op: "stats", ID: "", Err: err}
	}

	counts := make(map[string]int)
	for _, row := range rows {
		for _, tag := range row.Tags {
			counts[tag]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > statsListLimit {
		tags = tags[:statsListLimit]
	}
	return tags, nil
}

// CaptureStatsSnapshot persists a point-in-time catalog summary to
// the index's stats history.
func (s *Service) CaptureStatsSnapshot(ctx context.Context) error {
	if err := s.index.CaptureStatsSnapshot(ctx); err != nil {
		return &StorageError{Op: "stats snapshot", ID: "", Err: err}
	}
	return nil
}

// StatsHistory returns up to limit stored snapshots, newest first.
func (s *Service) StatsHistory(ctx context.Context, limit int) ([]metaindex.StatsSnapshot, error) {
	snapshots, err := s.index.StatsHistory(ctx, limit)
	if err != nil {
		return nil, &StorageError{Op: "stats history", ID: "", Err: err}
	}
	return snapshots, nil
}
