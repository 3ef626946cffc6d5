package uniuri

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	s := New()
	assert.Len(t, s, StdLen)
}

func TestNewLen(t *testing.T) {
	for _, length := range []int{0, 1, StdLen, TokenLen, 100} {
		s := NewLen(length)
		assert.Len(t, s, length)

		for _, c := range []byte(s) {
			assert.True(t, bytes.ContainsRune(StdChars, rune(c)), "unexpected character %q", c)
		}
	}
}

func TestNewLenUnique(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		s := NewLen(TokenLen)
		assert.False(t, seen[s], "duplicate token %q", s)
		seen[s] = true
	}
}
