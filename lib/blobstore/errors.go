// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import "fmt"

// CapacityError is returned by Store when a serialized payload
// exceeds the configured maximum size. Nothing is written.
type CapacityError struct {
	Size int64
	Max  int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("payload is %d bytes, exceeds the %d byte maximum", e.Size, e.Max)
}

// IntegrityError is returned by Load when the stored bytes do not
// match the pointer's checksum or size. The payload is corrupt or the
// pointer is stale.
type IntegrityError struct {
	Path     string
	Expected Checksum
	Actual   Checksum
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s",
		e.Path, e.Expected, e.Actual)
}

// DecompressionError is returned by Load when a payload flagged as
// compressed cannot be decoded. Since the checksum verified, this
// indicates a codec mismatch rather than disk corruption.
type DecompressionError struct {
	Path string
	Err  error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("decompressing %s: %v", e.Path, e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

// ParseError is returned by Load when the decompressed bytes are not
// valid JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing payload %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
