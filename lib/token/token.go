package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Character sets for generated codes. Check-in codes use the uppercase set
// because staff read them out loud; signup codes use base36 for typed entry.
const (
	CharsetUpper  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CharsetBase36 = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Source generates fixed-length random strings from an explicit charset.
// It is injected into the code managers so entropy is a configuration
// decision, not an accident of the call site.
type Source struct {
	charset string
	length  int
}

func NewSource(charset string, length int) *Source {
	if charset == "" {
		charset = CharsetUpper
	}
	if length <= 0 {
		length = 6
	}
	return &Source{charset: charset, length: length}
}

func (s *Source) Length() int {
	return s.length
}

// Generate returns a new random string of the configured length.
func (s *Source) Generate() (string, error) {
	max := big.NewInt(int64(len(s.charset)))
	out := make([]byte, s.length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random source: %w", err)
		}
		out[i] = s.charset[n.Int64()]
	}
	return string(out), nil
}
