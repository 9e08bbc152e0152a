package shortid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Length(t *testing.T) {
	gen := NewGenerator(10)
	token, err := gen.Generate()
	require.NoError(t, err)
	assert.Len(t, token, 10)
}

func TestNewGenerator_Clamps(t *testing.T) {
	assert.Equal(t, DefaultLength, NewGenerator(0).Length())
	assert.Equal(t, DefaultLength, NewGenerator(-3).Length())
	assert.Equal(t, MinLength, NewGenerator(2).Length())
	assert.Equal(t, MaxLength, NewGenerator(40).Length())
}

func TestGenerate_Charset(t *testing.T) {
	gen := NewGenerator(14)
	for i := 0; i < 50; i++ {
		token, err := gen.Generate()
		require.NoError(t, err)
		for _, r := range token {
			assert.True(t, strings.ContainsRune(charset, r), "unexpected character %q", r)
		}
	}
}

func TestGenerate_NoImmediateCollisions(t *testing.T) {
	gen := NewGenerator(8)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := gen.Generate()
		require.NoError(t, err)
		require.False(t, seen[token], "collision after %d tokens", i)
		seen[token] = true
	}
}
