// Package shortcode generates random short codes for links.
package shortcode

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// Base36 is lower-case letters and digits, so generated codes survive case-folding
const Base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultLength is the length of generated codes when none is configured
const DefaultLength = 6

var errEmptyAlphabet = errors.New("shortcode: alphabet must have at least two characters")

// Generator produces uniformly random codes of a fixed length over an alphabet.
type Generator struct {
	alphabet string
	length   int
	base     *big.Int
}

// NewGenerator creates a generator. A length <= 0 falls back to DefaultLength.
func NewGenerator(alphabet string, length int) (*Generator, error) {
	if len(alphabet) < 2 {
		return nil, errEmptyAlphabet
	}
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{
		alphabet: alphabet,
		length:   length,
		base:     big.NewInt(int64(len(alphabet))),
	}, nil
}

// NewCode returns a fresh random code
func (g *Generator) NewCode(_ context.Context) (string, error) {
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		idx, err := rand.Int(rand.Reader, g.base) // uniform in [0,len(alphabet))
		if err != nil {
			return "", err
		}
		b.WriteByte(g.alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// Length returns the number of characters in generated codes
func (g *Generator) Length() int { return g.length }
