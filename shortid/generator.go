// Package shortid generates the opaque tokens embedded in short URLs.
package shortid

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	MinLength     = 7
	MaxLength     = 14
	DefaultLength = 8
)

// Generator produces random base62 tokens of a fixed length. Generation is
// optimistic: it never consults the store, so uniqueness is enforced only at
// persist time and collisions surface as duplicate-key errors there.
type Generator struct {
	length int
}

// NewGenerator returns a Generator for tokens of the given length, clamped
// to [MinLength, MaxLength]. A non-positive length selects DefaultLength.
func NewGenerator(length int) *Generator {
	switch {
	case length <= 0:
		length = DefaultLength
	case length < MinLength:
		length = MinLength
	case length > MaxLength:
		length = MaxLength
	}
	return &Generator{length: length}
}

// Generate returns a new random token.
func (g *Generator) Generate() (string, error) {
	token := make([]byte, g.length)
	max := big.NewInt(int64(len(charset)))
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		token[i] = charset[n.Int64()]
	}
	return string(token), nil
}

// Length reports the length of generated tokens.
func (g *Generator) Length() int {
	return g.length
}
