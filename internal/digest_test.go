package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigest(t *testing.T) {
	assert.Equal(t, Digest("a", "b"), Digest("a", "b"))
	assert.NotEqual(t, Digest("ab", "c"), Digest("a", "bc"))
	assert.NotEqual(t, Digest("a"), Digest("a", ""))
	assert.Len(t, Digest("anything"), 64)
}
