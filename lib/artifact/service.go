// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifact is the unified store API: a validation layer, a
// pointer-addressed blob store for payloads, and a SQLite metadata
// index for everything searchable, composed behind one Service. The
// split is deliberate — payloads are written once and read rarely,
// metadata is queried constantly — so each side gets the engine suited
// to its access pattern while callers see a single artifact.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/depot-foundation/depot/lib/blobstore"
	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/metaindex"
	"github.com/depot-foundation/depot/lib/validate"
)

// DefaultPriority is assigned when a create request leaves priority
// unset.
const DefaultPriority = 5

// Config holds the parameters for opening an artifact service.
type Config struct {
	// Root is the storage directory. Payloads live under
	// Root/artifacts/, the metadata database at Root/index.db.
	Root string

	// MaxPayloadSize, CompressionThreshold, Codec, CacheCapacity and
	// CacheTTL pass through to the blob store; zero values take the
	// blob store defaults.
	MaxPayloadSize       int64
	CompressionThreshold int64
	Codec                blobstore.CompressionTag
	CacheCapacity        int
	CacheTTL             time.Duration

	// PoolSize is the index connection pool size. Defaults to 4.
	PoolSize int

	// Validator checks and bounds incoming fields. Defaults to
	// validate.Default().
	Validator *validate.Validator

	// BulkConcurrency bounds parallel items in bulk operations.
	// Defaults to DefaultBulkConcurrency.
	BulkConcurrency int

	// Clock provides timestamps. Defaults to the real clock.
	Clock clock.Clock

	// Logger receives operational messages. Defaults to slog.Default.
	Logger *slog.Logger
}

// Service is the artifact store. Safe for concurrent use. Concurrent
// writes to the same ID race last-writer-wins; the loser's payload is
// replaced but no caller ever observes a partial artifact.
type Service struct {
	blobs           *blobstore.Store
	index           *metaindex.Index
	validator       *validate.Validator
	bulkConcurrency int
	clock           clock.Clock
	logger          *slog.Logger
}

// Open opens the blob store and metadata index under cfg.Root,
// creating both on first use.
func Open(cfg Config) (*Service, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("artifact service: root directory is required")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validator := cfg.Validator
	if validator == nil {
		validator = validate.Default()
	}
	bulkConcurrency := cfg.BulkConcurrency
	if bulkConcurrency <= 0 {
		bulkConcurrency = DefaultBulkConcurrency
	}

	blobs, err := blobstore.Open(blobstore.Config{
		Root:                 filepath.Join(cfg.Root, "artifacts"),
		MaxPayloadSize:       cfg.MaxPayloadSize,
		CompressionThreshold: cfg.CompressionThreshold,
		Codec:                cfg.Codec,
		CacheCapacity:        cfg.CacheCapacity,
		CacheTTL:             cfg.CacheTTL,
		Clock:                clk,
		Logger:               logger,
	})
	if err != nil {
		return nil, fmt.Errorf("artifact service: %w", err)
	}

	index, err := metaindex.Open(metaindex.Config{
		Path:     filepath.Join(cfg.Root, "index.db"),
		PoolSize: cfg.PoolSize,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("artifact service: %w", err)
	}

	return &Service{
		blobs:           blobs,
		index:           index,
		validator:       validator,
		bulkConcurrency: bulkConcurrency,
		clock:           clk,
		logger:          logger,
	}, nil
}

// Close closes the metadata index. Blob store handles are per-call
// and need no teardown.
func (s *Service) Close() error {
	return s.index.Close()
}

// CreateRequest describes a new artifact. Data is the payload and may
// be any JSON-serializable value.
type CreateRequest struct {
	ID          string
	Type        string
	Category    string
	Title       string
	Description string
	Data        any
	Metadata    map[string]any
	Tags        []string

	// Priority is 0-10; nil takes DefaultPriority.
	Priority *int

	// Compress enables payload compression; Codec overrides the
	// service default codec when set.
	Compress bool
	Codec    blobstore.CompressionTag
}

// Create validates, persists, and indexes a new artifact. Reusing an
// existing ID replaces that artifact: payload bytes are swapped
// atomically and the index row is rewritten, with access counters
// carried over.
func (s *Service) Create(ctx context.Context, request CreateRequest) (*Record, error) {
	result := s.validator.ID(request.ID)
	result.Merge(s.validator.TypeName(request.Type))
	result.Merge(s.validator.Category(request.Category))

	title := validate.SanitizeTitle(request.Title)
	description := validate.SanitizeDescription(request.Description)
	tags := validate.SanitizeTags(request.Tags)
	result.Merge(s.validator.Title(title))
	result.Merge(s.validator.Description(description))
	result.Merge(s.validator.Metadata(request.Metadata))
	result.Merge(s.validator.Tags(tags))

	priority := DefaultPriority
	if request.Priority != nil {
		priority = *request.Priority
	}
	result.Merge(s.validator.Priority(priority))

	if !result.Valid {
		return nil, &ValidationError{ID: request.ID, Fields: result.Errors}
	}
	for _, warning := range result.Warnings {
		s.logger.Warn("artifact validation warning", "id", request.ID, "warning", warning)
	}

	// Gate metadata through the bounded value constructor before
	// anything persists: the validator bounds depth and size, this
	// rejects values outside the closed JSON type set.
	if _, err := NewMetadata(request.Metadata); err != nil {
		return nil, &ValidationError{ID: request.ID, Fields: []string{err.Error()}}
	}

	// Replacing an existing artifact whose type or category changed
	// leaves the payload at a new path; remember the old one so it
	// can be removed after the index row swaps over.
	existing, err := s.index.Get(ctx, request.ID)
	if err != nil {
		return nil, &StorageError{Op: "create", ID: request.ID, Err: err}
	}

	pointer, err := s.blobs.Store(request.ID, request.Type, request.Category, request.Data,
		blobstore.StoreOptions{Compress: request.Compress, Codec: request.Codec})
	if err != nil {
		var capacityErr *blobstore.CapacityError
		if errors.As(err, &capacityErr) {
			return nil, err
		}
		return nil, &StorageError{Op: "create", ID: request.ID, Err: err}
	}

	row := &metaindex.Row{
		ID:          request.ID,
		Type:        request.Type,
		Category:    request.Category,
		Title:       title,
		Description: description,
		FilePath:    pointer.Path,
		FileOffset:  pointer.Offset,
		FileSize:    pointer.Size,
		Compression: pointer.Compression,
		Checksum:    pointer.Checksum,
		Metadata:    request.Metadata,
		Tags:        tags,
		Priority:    priority,
		CreatedAt:   pointer.CreatedAt,
	}
	if err := s.index.Upsert(ctx, row); err != nil {
		// The payload is on disk but unindexed. Remove it rather than
		// leave an orphan the index will never find.
		s.blobs.Delete(pointer)
		return nil, &StorageError{Op: "create", ID: request.ID, Err: err}
	}

	if existing != nil && existing.FilePath != pointer.Path {
		if deleteResult := s.blobs.Delete(existing.Pointer()); deleteResult.Outcome == blobstore.DeleteFailed {
			s.logger.Warn("replaced payload not removed",
				"id", request.ID, "path", existing.FilePath, "error", deleteResult.Err)
		}
	}

	stored, err := s.index.Get(ctx, request.ID)
	if err != nil {
		return nil, &StorageError{Op: "create", ID: request.ID, Err: err}
	}
	if stored == nil {
		return nil, &StorageError{Op: "create", ID: request.ID, Err: fmt.Errorf("index row missing after upsert")}
	}
	record, err := recordFromRow(stored)
	if err != nil {
		return nil, &StorageError{Op: "create", ID: request.ID, Err: err}
	}

	s.logger.Info("artifact created", "id", request.ID, "type", request.Type,
		"category", request.Category, "size", pointer.Size,
		"compression", pointer.Compression.String())
	return record, nil
}

// Get returns the record for id without touching the payload or the
// access counters.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	row, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: err}
	}
	if row == nil {
		return nil, &NotFoundError{ID: id}
	}
	record, err := recordFromRow(row)
	if err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: err}
	}
	return record, nil
}

// GetData loads, verifies, and returns the payload for id, bumping
// the artifact's access count. Blob store faults pass through typed:
// IntegrityError for corrupt bytes, DecompressionError for codec
// mismatches, ParseError for invalid JSON.
func (s *Service) GetData(ctx context.Context, id string) (any, error) {
	row, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "get data", ID: id, Err: err}
	}
	if row == nil {
		return nil, &NotFoundError{ID: id}
	}

	payload, err := s.blobs.Load(row.Pointer())
	if err != nil {
		if isPayloadFault(err) {
			return nil, err
		}
		return nil, &StorageError{Op: "get data", ID: id, Err: err}
	}

	if err := s.index.IncrementAccess(ctx, id); err != nil {
		// The read succeeded; losing one counter bump is not worth
		// failing the call.
		s.logger.Warn("access count update failed", "id", id, "error", err)
	}
	return payload, nil
}

// UpdateRequest describes changes to an existing artifact. Nil fields
// are unchanged. Metadata entries are merged into the existing tree
// by top-level key; Tags, when non-nil, replace the tag set. Data
// replaces the payload when HasData is set.
type UpdateRequest struct {
	Title       *string
	Description *string
	Priority    *int
	Metadata    map[string]any
	Tags        []string

	HasData bool
	Data    any

	// Compress and Codec apply when HasData is set.
	Compress bool
	Codec    blobstore.CompressionTag
}

// Update applies a partial update. Type and category are fixed at
// creation — they determine the payload path — so changing them means
// recreating the artifact. Payload replacement swaps the file
// atomically before the index row is rewritten, so a complete payload
// exists at every instant.
func (s *Service) Update(ctx context.Context, id string, request UpdateRequest) (*Record, error) {
	row, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "update", ID: id, Err: err}
	}
	if row == nil {
		return nil, &NotFoundError{ID: id}
	}

	result := validate.Result{Valid: true}
	if request.Title != nil {
		row.Title = validate.SanitizeTitle(*request.Title)
		result.Merge(s.validator.Title(row.Title))
	}
	if request.Description != nil {
		row.Description = validate.SanitizeDescription(*request.Description)
		result.Merge(s.validator.Description(row.Description))
	}
	if request.Priority != nil {
		row.Priority = *request.Priority
		result.Merge(s.validator.Priority(row.Priority))
	}
	if request.Tags != nil {
		row.Tags = validate.SanitizeTags(request.Tags)
		result.Merge(s.validator.Tags(row.Tags))
	}
	if request.Metadata != nil {
		merged := make(map[string]any, len(row.Metadata)+len(request.Metadata))
		for key, value := range row.Metadata {
			merged[key] = value
		}
		for key, value := range request.Metadata {
			merged[key] = value
		}
		result.Merge(s.validator.Metadata(merged))
		if _, err := NewMetadata(merged); err != nil {
			result.Merge(validate.Result{Valid: false, Errors: []string{err.Error()}})
		}
		row.Metadata = merged
	}
	if !result.Valid {
		return nil, &ValidationError{ID: id, Fields: result.Errors}
	}
	for _, warning := range result.Warnings {
		s.logger.Warn("artifact validation warning", "id", id, "warning", warning)
	}

	if request.HasData {
		pointer, err := s.blobs.Store(id, row.Type, row.Category, request.Data,
			blobstore.StoreOptions{Compress: request.Compress, Codec: request.Codec})
		if err != nil {
			var capacityErr *blobstore.CapacityError
			if errors.As(err, &capacityErr) {
				return nil, err
			}
			return nil, &StorageError{Op: "update", ID: id, Err: err}
		}
		row.FilePath = pointer.Path
		row.FileOffset = pointer.Offset
		row.FileSize = pointer.Size
		row.Compression = pointer.Compression
		row.Checksum = pointer.Checksum
	}

	if err := s.index.Upsert(ctx, row); err != nil {
		return nil, &StorageError{Op: "update", ID: id, Err: err}
	}

	updated, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "update", ID: id, Err: err}
	}
	if updated == nil {
		return nil, &StorageError{Op: "update", ID: id, Err: fmt.Errorf("index row missing after upsert")}
	}
	record, err := recordFromRow(updated)
	if err != nil {
		return nil, &StorageError{Op: "update", ID: id, Err: err}
	}

	s.logger.Info("artifact updated", "id", id, "data_replaced", request.HasData)
	return record, nil
}

// Delete removes an artifact's payload and index row. A payload file
// already missing on disk is treated as settled; an I/O failure
// removing an existing file aborts the delete with a StorageError so
// the index keeps naming the still-present payload.
func (s *Service) Delete(ctx context.Context, id string) error {
	row, err := s.index.Get(ctx, id)
	if err != nil {
		return &StorageError{Op: "delete", ID: id, Err: err}
	}
	if row == nil {
		return &NotFoundError{ID: id}
	}

	deleteResult := s.blobs.Delete(row.Pointer())
	switch deleteResult.Outcome {
	case blobstore.DeleteFailed:
		return &StorageError{Op: "delete", ID: id, Err: deleteResult.Err}
	case blobstore.DeleteNotFound:
		s.logger.Warn("payload already missing at delete", "id", id, "path", row.FilePath)
	}

	if _, err := s.index.Delete(ctx, id); err != nil {
		return &StorageError{Op: "delete", ID: id, Err: err}
	}

	s.logger.Info("artifact deleted", "id", id)
	return nil
}

// isPayloadFault reports whether err is one of the blob store's typed
// payload faults, which callers match with errors.As and must not be
// re-wrapped into a StorageError.
func isPayloadFault(err error) bool {
	var integrityErr *blobstore.IntegrityError
	var decompressionErr *blobstore.DecompressionError
	var parseErr *blobstore.ParseError
	return errors.As(err, &integrityErr) ||
		errors.As(err, &decompressionErr) ||
		errors.As(err, &parseErr)
}
