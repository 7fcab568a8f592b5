// Copyright 2016 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package audit

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"turnin.io/errors"
	"turnin.io/turnin"
)

// Size is the number of bytes in a hash.
const Size = sha256.Size

// chunkSize is the size of each read when hashing a file.
const chunkSize = 32 * 1024

// Hash represents a SHA-256 hash code. It is always 32 bytes long.
// Its representation is an array so it can be treated as a value.
type Hash [Size]byte

// String returns the lower-case hexadecimal representation of the hash,
// as written to the integrity log.
func (hash Hash) String() string {
	return fmt.Sprintf("%x", hash[:])
}

// Sum returns the SHA-256 hash of everything read from r, reading in
// fixed-size chunks.
func Sum(r io.Reader) (hash Hash, err error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err = io.CopyBuffer(h, r, buf); err != nil {
		return
	}
	copy(hash[:], h.Sum(nil))
	return
}

// File returns the SHA-256 hash of the named file's contents.
func File(name string) (Hash, error) {
	f, err := os.Open(name)
	if err != nil {
		return Hash{}, errors.E(turnin.PathName(name), errors.IO, err)
	}
	defer f.Close()
	hash, err := Sum(f)
	if err != nil {
		return Hash{}, errors.E(turnin.PathName(name), errors.IO, err)
	}
	return hash, nil
}
