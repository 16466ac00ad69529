// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"
)

// StorageStats summarizes the on-disk payload tree. Sizes are the
// stored (post-compression) byte counts.
type StorageStats struct {
	// TotalFiles counts payload files under the root.
	TotalFiles int

	// TotalSize is the summed stored size in bytes.
	TotalSize int64

	// AverageFileSize is TotalSize / TotalFiles, zero when empty.
	AverageFileSize int64

	// FilesByType counts payload files per top-level type directory.
	FilesByType map[string]int

	// OldestFile and NewestFile are modification times of the
	// extremes. Zero when the tree is empty.
	OldestFile time.Time
	NewestFile time.Time
}

// StorageStats walks the payload tree and summarizes it. The walk
// reads directory metadata only, never payload contents.
func (s *Store) StorageStats() (StorageStats, error) {
	stats := StorageStats{FilesByType: make(map[string]int)}

	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if entry.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		stats.TotalFiles++
		stats.TotalSize += info.Size()

		relative, err := filepath.Rel(s.root, path)
		if err == nil {
			if typeName, _, found := cutPathSegment(relative); found {
				stats.FilesByType[typeName]++
			}
		}

		modTime := info.ModTime()
		if stats.OldestFile.IsZero() || modTime.Before(stats.OldestFile) {
			stats.OldestFile = modTime
		}
		if modTime.After(stats.NewestFile) {
			stats.NewestFile = modTime
		}
		return nil
	})
	if err != nil {
		return StorageStats{}, err
	}

	if stats.TotalFiles > 0 {
		stats.AverageFileSize = stats.TotalSize / int64(stats.TotalFiles)
	}
	return stats, nil
}

// cutPathSegment splits the first path component off a relative path.
func cutPathSegment(path string) (first, rest string, found bool) {
	for i := 0; i < len(path); i++ {
		if path[i] == filepath.Separator {
			return path[:i], path[i+1:], true
		}
	}
	return path, "", false
}
