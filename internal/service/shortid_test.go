package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShortID(t *testing.T) {
	for _, length := range []int{shortIDLength, shortIDFallbackLength} {
		id, err := newShortID(length)
		require.NoError(t, err)

		assert.Len(t, id, length)
		for _, r := range id {
			assert.True(t, strings.ContainsRune(shortIDAlphabet, r), "unexpected character %q", r)
		}
	}
}

func TestNewShortID_Unique(t *testing.T) {
	const n = 10000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id, err := newShortID(shortIDLength)
		require.NoError(t, err)

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %q after %d generations", id, i)
		seen[id] = struct{}{}
	}
}

func TestShortIDAlphabetSize(t *testing.T) {
	assert.Len(t, shortIDAlphabet, 64)

	seen := make(map[rune]struct{})
	for _, r := range shortIDAlphabet {
		_, dup := seen[r]
		assert.False(t, dup, "alphabet repeats %q", r)
		seen[r] = struct{}{}
	}
}
