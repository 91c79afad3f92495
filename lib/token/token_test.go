package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource_Generate(t *testing.T) {
	src := NewSource(CharsetUpper, 3)

	for i := 0; i < 100; i++ {
		code, err := src.Generate()
		assert.NoError(t, err)
		assert.Len(t, code, 3)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(CharsetUpper, r), "unexpected rune %q", r)
		}
	}
}

func TestSource_Defaults(t *testing.T) {
	src := NewSource("", 0)
	code, err := src.Generate()
	assert.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, 6, src.Length())
}

func TestSource_Base36(t *testing.T) {
	src := NewSource(CharsetBase36, 8)
	code, err := src.Generate()
	assert.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Equal(t, strings.ToLower(code), code)
}
