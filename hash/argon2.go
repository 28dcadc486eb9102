// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id defaults.
const (
	DefaultArgonMemory  uint32 = 64 * 1024 // KiB
	DefaultArgonTime    uint32 = 3
	DefaultArgonThreads uint8  = 2

	// MaxArgonMemory bounds the memory a stored hash may request (4 GiB).
	MaxArgonMemory uint32 = 4 * 1024 * 1024

	argonSaltLen = 16
	argonKeyLen  = 32
)

// Argon2Hasher hashes with argon2id and encodes results in the PHC string
// format: $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>. Zero fields select
// the defaults.
type Argon2Hasher struct {
	Memory  uint32
	Time    uint32
	Threads uint8
}

// NewArgon2Hasher returns a hasher with the given parameters; zero values
// select the defaults.
func NewArgon2Hasher(memory, time uint32, threads uint8) *Argon2Hasher {
	h := &Argon2Hasher{Memory: memory, Time: time, Threads: threads}
	h.Memory, h.Time, h.Threads = h.params()
	return h
}

// params returns the effective cost parameters. Memory is raised to the
// minimum of 8 KiB per thread argon2 requires.
func (h *Argon2Hasher) params() (memory, time uint32, threads uint8) {
	memory, time, threads = h.Memory, h.Time, h.Threads
	if memory == 0 {
		memory = DefaultArgonMemory
	}
	if time == 0 {
		time = DefaultArgonTime
	}
	if threads == 0 {
		threads = DefaultArgonThreads
	}
	if memory < 8*uint32(threads) {
		memory = 8 * uint32(threads)
	}
	if memory > MaxArgonMemory {
		memory = MaxArgonMemory
	}
	return memory, time, threads
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// Make hashes value with a random salt.
func (h *Argon2Hasher) Make(value string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: read salt: %w", err)
	}
	memory, time, threads := h.params()
	key := argon2.IDKey([]byte(value), salt, time, memory, threads, argonKeyLen)
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, time, threads,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

// Check verifies value against an argon2id PHC string.
func (h *Argon2Hasher) Check(value, hashed string) (bool, error) {
	if hashed == "" {
		return false, nil
	}
	p, err := parseArgon(hashed)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(value), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1, nil
}

// NeedsRehash reports whether hashed used different cost parameters.
func (h *Argon2Hasher) NeedsRehash(hashed string) bool {
	p, err := parseArgon(hashed)
	if err != nil {
		return true
	}
	memory, time, threads := h.params()
	return p.memory != memory || p.time != time || p.threads != threads
}

func parseArgon(hashed string) (*argonParams, error) {
	parts := strings.Split(hashed, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, ErrInvalidHash
	}
	p := &argonParams{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, ErrInvalidHash
	}
	if p.time < 1 || p.threads < 1 || p.memory < 8*uint32(p.threads) || p.memory > MaxArgonMemory {
		return nil, ErrInvalidHash
	}
	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, ErrInvalidHash
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, ErrInvalidHash
	}
	return p, nil
}
