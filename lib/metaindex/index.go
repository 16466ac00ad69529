// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package metaindex maintains the queryable artifact catalog in
// SQLite. Each row is a flattened projection of an artifact record
// plus its blob pointer: the index owns searchable attributes and
// access bookkeeping, while payload bytes live in the blob store. One
// index database serves one storage tree.
package metaindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/depot-foundation/depot/lib/blobstore"
	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/sqlitepool"
)

// Row is one indexed artifact. It carries everything needed to be
// listed in search results and to reconstruct the blob pointer.
type Row struct {
	ID          string
	Type        string
	Category    string
	Title       string
	Description string

	// Pointer projection: where the payload lives and how to verify
	// it. Copied verbatim from the blob store's pointer at store
	// time, never derived here.
	FilePath    string
	FileOffset  int64
	FileSize    int64
	Compression blobstore.CompressionTag
	Checksum    blobstore.Checksum

	Metadata map[string]any
	Tags     []string
	Priority int

	CreatedAt    time.Time
	UpdatedAt    time.Time
	AccessCount  int64
	LastAccessed time.Time // zero if never accessed
}

// Pointer rebuilds the blob pointer this row projects.
func (r *Row) Pointer() blobstore.Pointer {
	return blobstore.ReconstructPointer(
		r.FilePath, r.FileOffset, r.FileSize, r.Checksum, r.Compression, r.CreatedAt)
}

// Config holds the parameters for opening a metadata index.
type Config struct {
	// Path is the SQLite database file. The parent directory must
	// exist.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Clock provides timestamps for rows and stats snapshots.
	// Defaults to the real clock.
	Clock clock.Clock

	// Logger receives operational messages. Defaults to slog.Default.
	Logger *slog.Logger
}

// Index is the artifact catalog. Safe for concurrent use; writes are
// serialized by SQLite's single-writer model behind the pool.
type Index struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Open opens (creating if needed) the index database and applies the
// schema.
func Open(cfg Config) (*Index, error) {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("metadata index: %w", err)
	}

	index := &Index{pool: pool, clock: clk, logger: logger}
	if err := index.applySchema(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("metadata index: applying schema: %w", err)
	}
	return index, nil
}

// Close closes the underlying connection pool.
func (x *Index) Close() error {
	return x.pool.Close()
}

func (x *Index) applySchema(ctx context.Context) error {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer x.pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return err
	}

	var haveVersion bool
	err = sqlitex.Execute(conn, "SELECT version FROM schema_version LIMIT 1", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			haveVersion = true
			if v := stmt.ColumnInt64(0); v != schemaVersion {
				return fmt.Errorf("database has schema version %d, this build expects %d", v, schemaVersion)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	if !haveVersion {
		return sqlitex.Execute(conn, "INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			&sqlitex.ExecOptions{Args: []any{schemaVersion, x.clock.Now().UnixNano()}})
	}
	return nil
}

// Upsert inserts or replaces the row for row.ID. On replace, identity
// and creation time are preserved from the caller's row; UpdatedAt is
// set here.
func (x *Index) Upsert(ctx context.Context, row *Row) error {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("metadata index: upsert: %w", err)
	}
	defer x.pool.Put(conn)

	metadataJSON, err := marshalColumn(row.Metadata)
	if err != nil {
		return fmt.Errorf("metadata index: marshal metadata for %s: %w", row.ID, err)
	}
	tagsJSON, err := marshalColumn(row.Tags)
	if err != nil {
		return fmt.Errorf("metadata index: marshal tags for %s: %w", row.ID, err)
	}

	now := x.clock.Now().UTC()
	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	var lastAccessed any
	if !row.LastAccessed.IsZero() {
		lastAccessed = row.LastAccessed.UnixNano()
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO artifacts
			(id, type, category, title, description,
			 file_path, file_offset, file_size, metadata,
			 created_at, updated_at, access_count, last_accessed,
			 priority, tags, compression, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			category = excluded.category,
			title = excluded.title,
			description = excluded.description,
			file_path = excluded.file_path,
			file_offset = excluded.file_offset,
			file_size = excluded.file_size,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at,
			priority = excluded.priority,
			tags = excluded.tags,
			compression = excluded.compression,
			checksum = excluded.checksum`,
		&sqlitex.ExecOptions{
			Args: []any{
				row.ID, row.Type, row.Category, row.Title, row.Description,
				row.FilePath, row.FileOffset, row.FileSize, metadataJSON,
				createdAt.UnixNano(), now.UnixNano(), row.AccessCount, lastAccessed,
				row.Priority, tagsJSON, row.Compression.String(), row.Checksum.String(),
			},
		})
	if err != nil {
		return fmt.Errorf("metadata index: upsert %s: %w", row.ID, err)
	}
	return nil
}

// Get returns the row for id, or (nil, nil) when absent.
func (x *Index) Get(ctx context.Context, id string) (*Row, error) {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("metadata index: get: %w", err)
	}
	defer x.pool.Put(conn)

	var row *Row
	err = sqlitex.Execute(conn, "SELECT "+rowColumns+" FROM artifacts WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				scanned, err := scanRow(stmt)
				if err != nil {
					return err
				}
				row = scanned
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("metadata index: get %s: %w", id, err)
	}
	return row, nil
}

// Delete removes the row for id. Reports whether a row existed.
func (x *Index) Delete(ctx context.Context, id string) (bool, error) {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("metadata index: delete: %w", err)
	}
	defer x.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM artifacts WHERE id = ?",
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return false, fmt.Errorf("metadata index: delete %s: %w", id, err)
	}
	return conn.Changes() > 0, nil
}

// IncrementAccess bumps the access count and refreshes last_accessed
// for id. Access bookkeeping is caller-driven: the artifact service
// calls this on payload reads, not on record lookups.
func (x *Index) IncrementAccess(ctx context.Context, id string) error {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("metadata index: increment access: %w", err)
	}
	defer x.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"UPDATE artifacts SET access_count = access_count + 1, last_accessed = ? WHERE id = ?",
		&sqlitex.ExecOptions{Args: []any{x.clock.Now().UnixNano(), id}})
	if err != nil {
		return fmt.Errorf("metadata index: increment access %s: %w", id, err)
	}
	return nil
}

// Healthy verifies the database answers a trivial query.
func (x *Index) Healthy(ctx context.Context) error {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("metadata index: health: %w", err)
	}
	defer x.pool.Put(conn)

	err = sqlitex.Execute(conn, "SELECT 1", &sqlitex.ExecOptions{
		ResultFunc: func(*sqlite.Stmt) error { return nil },
	})
	if err != nil {
		return fmt.Errorf("metadata index: health: %w", err)
	}
	return nil
}

// rowColumns is the canonical SELECT column list, matching scanRow's
// positional reads.
const rowColumns = `id, type, category, title, description,
	file_path, file_offset, file_size, metadata,
	created_at, updated_at, access_count, last_accessed,
	priority, tags, compression, checksum`

func scanRow(stmt *sqlite.Stmt) (*Row, error) {
	row := &Row{
		ID:          stmt.ColumnText(0),
		Type:        stmt.ColumnText(1),
		Category:    stmt.ColumnText(2),
		Title:       stmt.ColumnText(3),
		Description: stmt.ColumnText(4),
		FilePath:    stmt.ColumnText(5),
		FileOffset:  stmt.ColumnInt64(6),
		FileSize:    stmt.ColumnInt64(7),
		CreatedAt:   time.Unix(0, stmt.ColumnInt64(9)).UTC(),
		UpdatedAt:   time.Unix(0, stmt.ColumnInt64(10)).UTC(),
		AccessCount: stmt.ColumnInt64(11),
		Priority:    stmt.ColumnInt(13),
	}

	if metadataJSON := stmt.ColumnText(8); metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &row.Metadata); err != nil {
			return nil, fmt.Errorf("corrupt metadata column for %s: %w", row.ID, err)
		}
	}
	if lastAccessed := stmt.ColumnInt64(12); lastAccessed != 0 {
		row.LastAccessed = time.Unix(0, lastAccessed).UTC()
	}
	if tagsJSON := stmt.ColumnText(14); tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &row.Tags); err != nil {
			return nil, fmt.Errorf("corrupt tags column for %s: %w", row.ID, err)
		}
	}

	compression, err := blobstore.ParseCompressionTag(stmt.ColumnText(15))
	if err != nil {
		return nil, fmt.Errorf("corrupt compression column for %s: %w", row.ID, err)
	}
	row.Compression = compression

	checksum, err := blobstore.ParseChecksum(stmt.ColumnText(16))
	if err != nil {
		return nil, fmt.Errorf("corrupt checksum column for %s: %w", row.ID, err)
	}
	row.Checksum = checksum

	return row, nil
}

// marshalColumn JSON-encodes a value for a nullable text column. Nil
// or empty values store as SQL NULL.
func marshalColumn(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			return nil, nil
		}
	case []string:
		if len(v) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
