// Package gameid generates match identifiers: UUIDv7 values written as 26
// lowercase Crockford base32 characters, so they sort by creation time.
package gameid

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of an encoded ID
const Length = 26

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// Generator creates IDs from a configurable source of randomness
type Generator struct {
	rand io.Reader
}

// NewGenerator creates a generator reading random bits from r. A nil reader
// uses crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{rand: r}
}

// Generate creates a new ID from crypto/rand
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new ID. It panics only if the random source fails.
func (g *Generator) Generate() string {
	id, err := uuid.NewV7FromReader(g.rand)
	if err != nil {
		panic("failed to generate match id: " + err.Error())
	}
	return Encode(id)
}

// Encode writes a UUID in the ID alphabet
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Parse decodes an ID back into its UUID
func Parse(s string) (uuid.UUID, error) {
	if len(s) != Length {
		return uuid.Nil, fmt.Errorf("match ID must be exactly %d characters, got %d", Length, len(s))
	}
	b, err := encoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode match ID %q: %w", s, err)
	}
	return uuid.FromBytes(b)
}

// Validate checks that s is a well formed UUIDv7 ID
func Validate(s string) error {
	id, err := Parse(s)
	if err != nil {
		return err
	}
	if v := id.Version(); v != 7 {
		return fmt.Errorf("match ID has UUID version %d, want 7", v)
	}
	return nil
}
