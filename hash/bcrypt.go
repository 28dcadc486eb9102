// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package hash

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptRounds is used when BcryptHasher.Rounds is zero.
const DefaultBcryptRounds = 10

// bcryptMaxLen is the longest input bcrypt uses; longer values are truncated.
const bcryptMaxLen = 72

// Prefix emitted by Make. Other bcrypt revisions are accepted by Check.
const bcryptPrefix = "$2y$"

// BcryptHasher hashes with bcrypt.
type BcryptHasher struct {
	Rounds int
}

// NewBcryptHasher returns a hasher using the given cost, clamped to the range
// bcrypt accepts. Zero selects DefaultBcryptRounds.
func NewBcryptHasher(rounds int) *BcryptHasher {
	return &BcryptHasher{Rounds: rounds}
}

func (h *BcryptHasher) cost() int {
	switch {
	case h.Rounds == 0:
		return DefaultBcryptRounds
	case h.Rounds < bcrypt.MinCost:
		return bcrypt.MinCost
	case h.Rounds > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return h.Rounds
}

// Make hashes value and rewrites the version prefix to $2y$. Only the first
// 72 bytes of value take part in the hash; Check truncates the same way, so
// longer values hash and verify instead of failing.
func (h *BcryptHasher) Make(value string) (string, error) {
	out, err := bcrypt.GenerateFromPassword(truncate(value), h.cost())
	if err != nil {
		return "", err
	}
	return bcryptPrefix + string(out[len("$2a$"):]), nil
}

// Check compares value with a $2a$, $2b$ or $2y$ hash.
func (h *BcryptHasher) Check(value, hashed string) (bool, error) {
	if hashed == "" {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(normalizeBcrypt(hashed)), truncate(value))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errors.Join(ErrInvalidHash, err)
	}
}

// NeedsRehash reports whether hashed used a cost other than the current one.
// Unparseable hashes always need rehashing.
func (h *BcryptHasher) NeedsRehash(hashed string) bool {
	cost, err := bcrypt.Cost([]byte(normalizeBcrypt(hashed)))
	if err != nil {
		return true
	}
	return cost != h.cost()
}

func truncate(value string) []byte {
	b := []byte(value)
	if len(b) > bcryptMaxLen {
		b = b[:bcryptMaxLen]
	}
	return b
}

func normalizeBcrypt(hashed string) string {
	for _, p := range []string{"$2y$", "$2b$"} {
		if strings.HasPrefix(hashed, p) {
			return "$2a$" + hashed[len(p):]
		}
	}
	return hashed
}
