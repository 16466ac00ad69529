// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import "time"

// Pointer locates and verifies one stored payload. It is the sole
// authority for where a payload lives and what bytes it must contain:
// constructed only by [Store.Store], consumed by Load, Validate, and
// Delete. The metadata index persists a flattened projection of a
// Pointer but never builds one from scratch — reconstruction goes
// through [ReconstructPointer] with values the index copied verbatim
// at store time.
type Pointer struct {
	// Path is the payload file location, relative to the store root.
	Path string

	// Offset is the byte offset of the payload within the file.
	// Zero for whole-file payloads (the common case).
	Offset int64

	// Size is the stored byte length — post-compression when
	// Compression is not CompressionNone.
	Size int64

	// Checksum is the payload-domain BLAKE3 digest of the stored
	// bytes.
	Checksum Checksum

	// Compression is the codec the stored bytes are encoded with.
	Compression CompressionTag

	// CreatedAt is when the payload was written.
	CreatedAt time.Time

	// LastAccessed is when the payload was last loaded through this
	// process's store. Zero if never loaded. In-memory bookkeeping
	// only — not persisted to the payload file.
	LastAccessed time.Time
}

// Compressed reports whether the stored bytes are compressed.
func (p Pointer) Compressed() bool {
	return p.Compression != CompressionNone
}

// ReconstructPointer rebuilds a Pointer from the flattened projection
// held in the metadata index. The caller must pass the values exactly
// as the index stored them; nothing is re-derived.
func ReconstructPointer(path string, offset, size int64, checksum Checksum, compression CompressionTag, createdAt time.Time) Pointer {
	return Pointer{
		Path:        path,
		Offset:      offset,
		Size:        size,
		Checksum:    checksum,
		Compression: compression,
		CreatedAt:   createdAt,
	}
}
