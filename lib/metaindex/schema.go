// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package metaindex

// schemaVersion is the current schema generation. Stored in the
// schema_version table so future generations can detect and migrate
// older databases.
const schemaVersion = 1

// schema is the full DDL for a fresh database. Every statement is
// idempotent, so reapplying on open is safe.
//
// Timestamps are Unix nanoseconds (UTC). metadata and tags are JSON
// text; checksum is the hex form of the payload checksum; compression
// is the persisted codec tag name. file_offset is zero for
// whole-file payloads.
const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id            TEXT PRIMARY KEY,
	type          TEXT NOT NULL,
	category      TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	file_path     TEXT NOT NULL,
	file_offset   INTEGER NOT NULL DEFAULT 0,
	file_size     INTEGER NOT NULL,
	metadata      TEXT,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	access_count  INTEGER NOT NULL DEFAULT 0,
	last_accessed INTEGER,
	priority      INTEGER NOT NULL DEFAULT 5,
	tags          TEXT,
	compression   TEXT NOT NULL DEFAULT 'none',
	checksum      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_type          ON artifacts(type);
CREATE INDEX IF NOT EXISTS idx_artifacts_category      ON artifacts(category);
CREATE INDEX IF NOT EXISTS idx_artifacts_priority      ON artifacts(priority DESC);
CREATE INDEX IF NOT EXISTS idx_artifacts_last_accessed ON artifacts(last_accessed DESC);
CREATE INDEX IF NOT EXISTS idx_artifacts_created_at    ON artifacts(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_artifacts_tags          ON artifacts(tags);

-- updated_at tracks content changes only: access bookkeeping
-- (IncrementAccess bumping access_count) keeps the old value.
CREATE TRIGGER IF NOT EXISTS artifacts_touch_updated_at
AFTER UPDATE ON artifacts
WHEN NEW.access_count = OLD.access_count AND NEW.updated_at = OLD.updated_at
BEGIN
	UPDATE artifacts
	SET updated_at = CAST(unixepoch('subsec') * 1000000000 AS INTEGER)
	WHERE id = NEW.id;
END;

CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER NOT NULL,
	applied_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stats_history (
	captured_at INTEGER PRIMARY KEY,
	snapshot    BLOB NOT NULL
);
`
