// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"time"

	"github.com/depot-foundation/depot/lib/blobstore"
	"github.com/depot-foundation/depot/lib/metaindex"
)

// Record is the caller-facing view of one stored artifact: the
// searchable attributes plus storage facts, without the payload.
// Payload bytes come from GetData.
type Record struct {
	ID          string
	Type        string
	Category    string
	Title       string
	Description string

	Metadata map[string]Value
	Tags     []string
	Priority int

	CreatedAt    time.Time
	UpdatedAt    time.Time
	AccessCount  int64
	LastAccessed time.Time // zero if the payload was never read

	// Storage facts, owned by the blob store.
	FileSize   int64
	Compressed bool
	Checksum   blobstore.Checksum
}

// recordFromRow converts an index row into the caller-facing record.
// Row metadata was validated on the way in, so conversion failures
// mean the column was corrupted outside this process.
func recordFromRow(row *metaindex.Row) (*Record, error) {
	metadata, err := NewMetadata(row.Metadata)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:           row.ID,
		Type:         row.Type,
		Category:     row.Category,
		Title:        row.Title,
		Description:  row.Description,
		Metadata:     metadata,
		Tags:         row.Tags,
		Priority:     row.Priority,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		AccessCount:  row.AccessCount,
		LastAccessed: row.LastAccessed,
		FileSize:     row.FileSize,
		Compressed:   row.Compression != blobstore.CompressionNone,
		Checksum:     row.Checksum,
	}, nil
}
