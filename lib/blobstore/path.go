// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"fmt"
	"path/filepath"
	"strings"
)

// sanitizeSegment reduces a caller-supplied name to a string safe to
// use as a single path component under the storage root. Every byte
// outside [A-Za-z0-9._-] is replaced with an underscore, and the
// result may not be empty, ".", "..", or start with a dot (which
// would hide the file from directory scans).
func sanitizeSegment(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty path segment")
	}
	var builder strings.Builder
	builder.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '.', r == '_', r == '-':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}
	segment := builder.String()
	if segment == "." || segment == ".." {
		return "", fmt.Errorf("path segment %q reduces to a directory reference", name)
	}
	if strings.HasPrefix(segment, ".") {
		return "", fmt.Errorf("path segment %q would produce a hidden file", name)
	}
	return segment, nil
}

// payloadPath builds the relative storage path for an artifact:
// type/category/id.json. All three segments are sanitized; the
// returned path is always relative to the store root.
func payloadPath(artifactType, category, id string) (string, error) {
	typeSegment, err := sanitizeSegment(artifactType)
	if err != nil {
		return "", fmt.Errorf("artifact type: %w", err)
	}
	categorySegment, err := sanitizeSegment(category)
	if err != nil {
		return "", fmt.Errorf("category: %w", err)
	}
	idSegment, err := sanitizeSegment(id)
	if err != nil {
		return "", fmt.Errorf("artifact ID: %w", err)
	}
	return filepath.Join(typeSegment, categorySegment, idSegment+".json"), nil
}
