package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupKeyword(t *testing.T) {
	k, ok := LookupKeyword("while")
	assert.True(t, ok)
	assert.Equal(t, WHILE, k)

	_, ok = LookupKeyword("whilst")
	assert.False(t, ok)
}

func TestKeywordMaximality(t *testing.T) {
	// "default" must never be recognised as "def" or any other prefix.
	for kw := range Keywords {
		for n := 1; n < len(kw); n++ {
			_, ok := LookupKeyword(kw[:n])
			assert.False(t, ok, "prefix %q of %q", kw[:n], kw)
		}
		k, ok := LookupKeyword(kw)
		assert.True(t, ok)
		assert.NotEqual(t, ILLEGAL, k)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "NAME", NAME.String())
	assert.Contains(t, Kind(999).String(), "Kind(999)")
}
