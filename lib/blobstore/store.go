// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package blobstore persists artifact payloads as compressed JSON
// files under a directory tree keyed by artifact type and category.
// Every stored payload is addressed by a [Pointer] carrying the file
// path, byte region, compression tag, and a keyed BLAKE3 checksum;
// loads verify the checksum before decompressing, so on-disk
// corruption surfaces as a typed [IntegrityError] rather than as
// garbage data.
package blobstore

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/depot-foundation/depot/lib/clock"
)

// DefaultMaxPayloadSize caps the serialized size of a single payload.
const DefaultMaxPayloadSize = 10 << 20

// DefaultCompressionThreshold is the serialized size below which
// payloads are stored uncompressed; compressing tiny JSON documents
// costs more than it saves.
const DefaultCompressionThreshold = 1024

// DefaultCacheCapacity bounds the read cache entry count.
const DefaultCacheCapacity = 256

// DefaultCacheTTL bounds how long a cached payload is served without
// rereading the file.
const DefaultCacheTTL = 5 * time.Minute

// Config configures a Store. Root is required; everything else has a
// usable default.
type Config struct {
	// Root is the directory holding the payload tree. Created if
	// absent.
	Root string

	// MaxPayloadSize caps the serialized payload size in bytes.
	// Defaults to DefaultMaxPayloadSize.
	MaxPayloadSize int64

	// CompressionThreshold is the serialized size at or below which
	// payloads stay uncompressed even when compression is requested.
	// Defaults to DefaultCompressionThreshold.
	CompressionThreshold int64

	// Codec selects the compression codec for payloads over the
	// threshold. Defaults to CompressionGzip.
	Codec CompressionTag

	// CacheCapacity bounds the read cache entry count. Zero means
	// DefaultCacheCapacity; negative disables caching.
	CacheCapacity int

	// CacheTTL bounds the lifetime of cached payloads. Zero means
	// DefaultCacheTTL.
	CacheTTL time.Duration

	// Cache overrides the default LRU read cache. Nil constructs one
	// from CacheCapacity and CacheTTL.
	Cache PayloadCache

	// Clock supplies time for pointer timestamps and cache expiry.
	// Defaults to the real clock.
	Clock clock.Clock

	// Logger receives store diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Store reads and writes artifact payloads under a directory root.
// Safe for concurrent use: writes are atomic (temp file plus rename)
// and reads never observe partial files.
type Store struct {
	root                 string
	maxPayloadSize       int64
	compressionThreshold int64
	codec                CompressionTag
	cache                PayloadCache
	clock                clock.Clock
	logger               *slog.Logger
}

// StoreOptions controls a single Store call.
type StoreOptions struct {
	// Compress enables compression of payloads over the store's
	// threshold.
	Compress bool

	// Codec overrides the store's default codec when Compress is set.
	// CompressionNone means use the store default.
	Codec CompressionTag
}

// Open validates the configuration, creates the root directory if
// needed, and returns a ready store.
func Open(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("blob store root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob store root: %w", err)
	}

	maxPayloadSize := cfg.MaxPayloadSize
	if maxPayloadSize <= 0 {
		maxPayloadSize = DefaultMaxPayloadSize
	}
	compressionThreshold := cfg.CompressionThreshold
	if compressionThreshold <= 0 {
		compressionThreshold = DefaultCompressionThreshold
	}
	codec := cfg.Codec
	if codec == CompressionNone {
		codec = CompressionGzip
	}
	switch codec {
	case CompressionGzip, CompressionZstd, CompressionLZ4:
	default:
		return nil, fmt.Errorf("unsupported compression codec: %d", uint8(codec))
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache := cfg.Cache
	if cache == nil {
		capacity := cfg.CacheCapacity
		switch {
		case capacity == 0:
			capacity = DefaultCacheCapacity
		case capacity < 0:
			capacity = 0
		}
		ttl := cfg.CacheTTL
		if ttl == 0 {
			ttl = DefaultCacheTTL
		}
		cache = NewLRUCache(capacity, ttl, clk)
	}

	return &Store{
		root:                 cfg.Root,
		maxPayloadSize:       maxPayloadSize,
		compressionThreshold: compressionThreshold,
		codec:                codec,
		cache:                cache,
		clock:                clk,
		logger:               logger,
	}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Store serializes payload as JSON and writes it as a standalone file
// at type/category/id.json under the root, returning a pointer to the
// stored bytes. Oversized payloads fail with a [CapacityError].
// Compression is applied only when opts.Compress is set and the
// serialized size exceeds the store threshold; payloads that do not
// shrink under the codec are stored uncompressed.
func (s *Store) Store(id, artifactType, category string, payload any, opts StoreOptions) (Pointer, error) {
	relativePath, err := payloadPath(artifactType, category, id)
	if err != nil {
		return Pointer{}, err
	}

	serialized, err := json.Marshal(payload)
	if err != nil {
		return Pointer{}, fmt.Errorf("serializing payload for %s: %w", id, err)
	}
	if int64(len(serialized)) > s.maxPayloadSize {
		return Pointer{}, &CapacityError{Size: int64(len(serialized)), Max: s.maxPayloadSize}
	}

	data := serialized
	tag := CompressionNone
	if opts.Compress && int64(len(serialized)) > s.compressionThreshold {
		codec := opts.Codec
		if codec == CompressionNone {
			codec = s.codec
		}
		compressed, err := compress(serialized, codec)
		switch {
		case err == errIncompressible:
			// Stored uncompressed; the pointer records the truth.
		case err != nil:
			s.logger.Warn("payload compression failed, storing uncompressed",
				"id", id, "codec", codec.String(), "error", err)
		default:
			data = compressed
			tag = codec
		}
	}

	absolutePath := filepath.Join(s.root, relativePath)
	if err := os.MkdirAll(filepath.Dir(absolutePath), 0o755); err != nil {
		return Pointer{}, fmt.Errorf("creating payload directory: %w", err)
	}
	if err := atomicWrite(absolutePath, data); err != nil {
		return Pointer{}, fmt.Errorf("writing payload %s: %w", relativePath, err)
	}

	now := s.clock.Now().UTC()
	pointer := Pointer{
		Path:         relativePath,
		Offset:       0,
		Size:         int64(len(data)),
		Checksum:     ChecksumBytes(data),
		Compression:  tag,
		CreatedAt:    now,
		LastAccessed: now,
	}

	// A rewritten payload invalidates any cached copy of the old
	// bytes at the same location.
	s.cache.Remove(CacheKey{Path: relativePath, Offset: 0, Size: pointer.Size})

	return pointer, nil
}

// Load reads the bytes a pointer addresses, verifies their checksum,
// decompresses them if the pointer says so, and parses the JSON
// payload. Results are served from the read cache when fresh.
func (s *Store) Load(pointer Pointer) (any, error) {
	key := CacheKey{Path: pointer.Path, Offset: pointer.Offset, Size: pointer.Size}
	if payload, found := s.cache.Get(key); found {
		return payload, nil
	}

	data, err := s.readRegion(pointer)
	if err != nil {
		return nil, err
	}

	if actual := ChecksumBytes(data); actual != pointer.Checksum {
		return nil, &IntegrityError{Path: pointer.Path, Expected: pointer.Checksum, Actual: actual}
	}

	if pointer.Compressed() {
		data, err = decompress(data, pointer.Compression)
		if err != nil {
			return nil, &DecompressionError{Path: pointer.Path, Err: err}
		}
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &ParseError{Path: pointer.Path, Err: err}
	}

	s.cache.Put(key, payload)
	return payload, nil
}

// readRegion reads the byte region a pointer addresses. An offset of
// zero with a size matching the file reads the whole file; otherwise
// the region is read at the recorded offset.
func (s *Store) readRegion(pointer Pointer) ([]byte, error) {
	absolutePath := filepath.Join(s.root, pointer.Path)
	file, err := os.Open(absolutePath)
	if err != nil {
		return nil, fmt.Errorf("opening payload %s: %w", pointer.Path, err)
	}
	defer file.Close()

	data := make([]byte, pointer.Size)
	if _, err := file.ReadAt(data, pointer.Offset); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading payload %s at offset %d: %w", pointer.Path, pointer.Offset, err)
	}
	return data, nil
}

// DeleteOutcome classifies what a Delete call actually did.
type DeleteOutcome int

const (
	// DeleteRemoved means the file existed and was removed.
	DeleteRemoved DeleteOutcome = iota
	// DeleteNotFound means the file was already absent.
	DeleteNotFound
	// DeleteFailed means the file exists but could not be removed.
	DeleteFailed
)

// DeleteResult reports the outcome of a Delete. Err is nil except
// when Outcome is DeleteFailed.
type DeleteResult struct {
	Outcome DeleteOutcome
	Err     error
}

// Delete removes the file a pointer addresses and prunes the cache
// entry. A missing file is reported distinctly from an I/O failure so
// callers can treat already-deleted payloads as settled.
func (s *Store) Delete(pointer Pointer) DeleteResult {
	s.cache.Remove(CacheKey{Path: pointer.Path, Offset: pointer.Offset, Size: pointer.Size})

	absolutePath := filepath.Join(s.root, pointer.Path)
	err := os.Remove(absolutePath)
	switch {
	case err == nil:
		s.pruneEmptyDirs(filepath.Dir(absolutePath))
		return DeleteResult{Outcome: DeleteRemoved}
	case os.IsNotExist(err):
		return DeleteResult{Outcome: DeleteNotFound}
	default:
		return DeleteResult{Outcome: DeleteFailed, Err: fmt.Errorf("deleting payload %s: %w", pointer.Path, err)}
	}
}

// Validate checks that the pointer's file exists, the addressed
// region is readable, and its checksum matches. It never reads
// through the cache.
func (s *Store) Validate(pointer Pointer) error {
	data, err := s.readRegion(pointer)
	if err != nil {
		return err
	}
	if actual := ChecksumBytes(data); actual != pointer.Checksum {
		return &IntegrityError{Path: pointer.Path, Expected: pointer.Checksum, Actual: actual}
	}
	return nil
}

// pruneEmptyDirs removes now-empty category and type directories
// above a deleted payload, stopping at the store root. Removal
// failures are ignored: a concurrent writer recreating the directory
// is not an error.
func (s *Store) pruneEmptyDirs(dir string) {
	for dir != s.root && len(dir) > len(s.root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// atomicWrite writes data to path via a temp file in the same
// directory followed by a rename, so readers never see a partial
// file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".depot-write-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting payload permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
