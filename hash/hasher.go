// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package hash provides one-way password hashing behind a driver manager.
package hash

import "errors"

// ErrInvalidHash is returned by Check when the stored hash cannot be parsed.
var ErrInvalidHash = errors.New("invalid hash")

// Hasher hashes values and verifies them against stored hashes.
type Hasher interface {
	// Make returns a salted hash of value.
	Make(value string) (string, error)
	// Check reports whether value matches hashed. A mismatch is not an
	// error.
	Check(value, hashed string) (bool, error)
	// NeedsRehash reports whether hashed was produced with parameters that
	// differ from the hasher's current ones.
	NeedsRehash(hashed string) bool
}
