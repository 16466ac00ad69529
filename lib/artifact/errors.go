// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"fmt"
	"strings"
)

// ValidationError rejects a request before anything is persisted. It
// carries every failed check, not just the first.
type ValidationError struct {
	ID     string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("artifact %s failed validation: %s", e.ID, strings.Join(e.Fields, "; "))
}

// NotFoundError reports a lookup for an ID with no index row.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifact %s not found", e.ID)
}

// StorageError wraps a blob-store or index failure during an
// operation that should otherwise have succeeded.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
