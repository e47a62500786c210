// Package reference produces the short identifiers assigned to committed
// transfers.
package reference

import (
	"crypto/rand"
	"fmt"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length keeps references human-shareable. Collisions are possible and
	// tolerated: uniqueness is enforced by the transactions.reference
	// constraint, never here.
	Length = 8
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns an uppercase alphanumeric token. It consults no external
// state, so two calls can collide; the store constraint rejects the second.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reference: read random bytes error %w", err)
	}

	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}

	return string(buf), nil
}
