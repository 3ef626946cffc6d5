// Package uniuri generates cryptographically secure random strings used as
// confirmation and password-reset tokens.
package uniuri

import "crypto/rand"

const (
	// StdLen is a standard length of uniuri string to achieve ~95 bits of entropy.
	StdLen = 16
	// TokenLen is the length used for single-use account tokens.
	TokenLen = 32
)

// StdChars is the set of characters allowed in a uniuri string.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// New returns a new random string of the standard length.
func New() string {
	return NewLen(StdLen)
}

// NewLen returns a new random string of the provided length, consisting of
// standard characters. Bytes outside the unbiased range are rejected so the
// distribution over StdChars stays uniform.
func NewLen(length int) string {
	if length == 0 {
		return ""
	}

	clen := len(StdChars)
	maxRb := 255 - 256%clen
	out := make([]byte, length)
	buf := make([]byte, length*2)

	i := 0
	for {
		if _, err := rand.Read(buf); err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		for _, rb := range buf {
			if int(rb) > maxRb {
				// Skip this byte to avoid modulo bias.
				continue
			}

			out[i] = StdChars[int(rb)%clen]
			i++

			if i == length {
				return string(out)
			}
		}
	}
}
