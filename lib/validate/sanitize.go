// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package validate

import "strings"

// SanitizeTitle trims surrounding whitespace and collapses internal
// whitespace runs to single spaces.
func SanitizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

// SanitizeDescription trims surrounding whitespace. Internal
// whitespace is preserved — descriptions may be multi-line.
func SanitizeDescription(description string) string {
	return strings.TrimSpace(description)
}

// SanitizeTags trims each tag, drops empties, and removes duplicates.
// First occurrence order is preserved.
func SanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// ClampPriority forces a priority into [0, 10].
func ClampPriority(priority int) int {
	if priority < 0 {
		return 0
	}
	if priority > 10 {
		return 10
	}
	return priority
}
