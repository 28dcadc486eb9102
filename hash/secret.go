// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package hash

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

const redacted = "[SECRET]"

// Secret holds a plaintext value on its way to a hasher. Formatting and
// encoding print a placeholder instead of the value.
type Secret []byte

// NewSecret copies b into a Secret.
func NewSecret(b []byte) Secret {
	out := make(Secret, len(b))
	copy(out, b)
	return out
}

func (s Secret) String() string { return redacted }

// Format redacts every verb, including %#v and %x.
func (s Secret) Format(f fmt.State, _ rune) { _, _ = io.WriteString(f, redacted) }

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Zero overwrites the value in place.
func (s Secret) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// MakeSecret hashes s with h and zeroes s afterwards.
func MakeSecret(h Hasher, s Secret) (string, error) {
	defer s.Zero()
	return h.Make(string(s))
}
