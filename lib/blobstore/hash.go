// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Checksum is a 32-byte BLAKE3 digest of the bytes actually persisted
// for a payload — post-compression when the payload is compressed.
// It is verified on every load.
type Checksum [32]byte

// payloadDomainKey is the 32-byte key for BLAKE3 keyed hashing.
// Domain separation ensures payload checksums can never collide with
// digests computed elsewhere over the same bytes. The byte values are
// the ASCII encoding of the domain name, zero-padded to 32 bytes, so
// the key is inspectable in hex dumps without sacrificing any
// cryptographic property.
var payloadDomainKey = [32]byte{
	'd', 'e', 'p', 'o', 't', '.', 'b', 'l', 'o', 'b', '.',
	'p', 'a', 'y', 'l', 'o', 'a', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ChecksumBytes computes the payload-domain BLAKE3 keyed checksum of
// data.
func ChecksumBytes(data []byte) Checksum {
	// NewKeyed only fails for a wrong key length, which the fixed-size
	// array rules out.
	hasher, err := blake3.NewKeyed(payloadDomainKey[:])
	if err != nil {
		panic("blobstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var checksum Checksum
	copy(checksum[:], hasher.Sum(nil))
	return checksum
}

// String returns the hex encoding of the checksum. This is the
// canonical format used in the metadata index, logs, and errors.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// ParseChecksum parses a 64-character hex string into a Checksum.
func ParseChecksum(hexString string) (Checksum, error) {
	var checksum Checksum
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return checksum, fmt.Errorf("parsing payload checksum: %w", err)
	}
	if len(decoded) != 32 {
		return checksum, fmt.Errorf("payload checksum is %d bytes, want 32", len(decoded))
	}
	copy(checksum[:], decoded)
	return checksum, nil
}
