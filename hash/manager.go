// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package hash

import (
	"github.com/toeirei/bedrock/config"
	"github.com/toeirei/bedrock/manager"
)

// DefaultDriver is used when hash.driver is not configured.
const DefaultDriver = "bcrypt"

// Manager resolves hashers by name. Built-in drivers are its
// Create<Name>Driver methods; Extend adds custom ones.
type Manager struct {
	*manager.Manager[Hasher]
	config *config.Repository
}

// NewManager returns a hash manager reading its settings from cfg:
//
//	hash.driver          default driver (bcrypt)
//	hash.bcrypt.rounds   bcrypt cost
//	hash.argon2.memory   argon2 memory in KiB
//	hash.argon2.time     argon2 iterations
//	hash.argon2.threads  argon2 parallelism
func NewManager(cfg *config.Repository) *Manager {
	m := &Manager{config: cfg}
	m.Manager = manager.New[Hasher](
		func() string { return cfg.GetString("hash.driver", DefaultDriver) },
		manager.WithName[Hasher]("hash"),
		manager.WithFactory[Hasher](m),
	)
	return m
}

// CreateBcryptDriver builds the bcrypt hasher.
func (m *Manager) CreateBcryptDriver() (Hasher, error) {
	return NewBcryptHasher(m.config.GetInt("hash.bcrypt.rounds", DefaultBcryptRounds)), nil
}

// CreateArgon2Driver builds the argon2id hasher.
func (m *Manager) CreateArgon2Driver() (Hasher, error) {
	return NewArgon2Hasher(
		uint32(m.config.GetInt("hash.argon2.memory")),
		uint32(m.config.GetInt("hash.argon2.time")),
		uint8(m.config.GetInt("hash.argon2.threads")),
	), nil
}

// Make hashes value with the default driver.
func (m *Manager) Make(value string) (string, error) {
	h, err := m.Driver("")
	if err != nil {
		return "", err
	}
	return h.Make(value)
}

// Check verifies value with the default driver.
func (m *Manager) Check(value, hashed string) (bool, error) {
	h, err := m.Driver("")
	if err != nil {
		return false, err
	}
	return h.Check(value, hashed)
}

// NeedsRehash asks the default driver whether hashed is outdated.
func (m *Manager) NeedsRehash(hashed string) bool {
	h, err := m.Driver("")
	if err != nil {
		return false
	}
	return h.NeedsRehash(hashed)
}

var _ Hasher = (*Manager)(nil)
