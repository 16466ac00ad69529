// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// CleanupResult reports what a Cleanup pass did. Errors holds one
// entry per file that could not be examined or removed; a cleanup
// pass never aborts on the first failure.
type CleanupResult struct {
	Deleted int
	Errors  []error
}

// Cleanup removes payload files whose modification time is older than
// maxAge, then prunes directories the removals emptied. It operates
// on the filesystem alone: callers that index payloads must remove
// the matching index rows themselves, ideally by querying the index
// for old artifacts and deleting through the unified API instead.
// Cleanup exists for operating directly on orphaned trees.
func (s *Store) Cleanup(maxAge time.Duration) CleanupResult {
	cutoff := s.clock.Now().Add(-maxAge)
	var result CleanupResult

	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("walking %s: %w", path, err))
			return nil
		}
		if entry.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("stat %s: %w", path, err))
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("removing %s: %w", path, err))
			return nil
		}
		result.Deleted++
		return nil
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("walking storage root: %w", err))
	}

	if result.Deleted > 0 {
		s.cache.Clear()
		s.pruneEmptyTree()
	}

	s.logger.Info("blob store cleanup finished",
		"deleted", result.Deleted, "errors", len(result.Errors))
	return result
}

// pruneEmptyTree removes empty category and type directories left
// behind by a cleanup pass. Two levels deep by construction
// (type/category), so two passes settle the tree.
func (s *Store) pruneEmptyTree() {
	for range 2 {
		entries, err := collectEmptyDirs(s.root)
		if err != nil || len(entries) == 0 {
			return
		}
		for _, dir := range entries {
			os.Remove(dir)
		}
	}
}

// collectEmptyDirs lists empty directories under root, root excluded.
func collectEmptyDirs(root string) ([]string, error) {
	var empty []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.IsDir() || path == root {
			return nil
		}
		children, err := os.ReadDir(path)
		if err == nil && len(children) == 0 {
			empty = append(empty, path)
		}
		return nil
	})
	return empty, err
}
