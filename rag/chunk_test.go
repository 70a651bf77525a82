package rag

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"abc", "def", "g"}, ChunkText("abcdefg", 3))
	assert.Equal(t, []string{"abcdef"}, ChunkText("abcdef", 6))
	assert.Empty(t, ChunkText("", 3))

	// Rune windows: multi-byte characters are never split
	assert.Equal(t, []string{"회사의", " 복지"}, ChunkText("회사의 복지", 3))

	long := strings.Repeat("x", 2500)
	chunks := ChunkText(long, 0)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], DefaultChunkSize)
	assert.Len(t, chunks[2], 500)
	assert.Equal(t, long, strings.Join(chunks, ""))
}

func TestLoadTextFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "policy.txt")
	assert.NoError(t, os.WriteFile(path, []byte("유연근무제 안내"), 0o644))

	chunks, err := LoadTextFile(path, 4)
	assert.NoError(t, err)
	assert.Equal(t, []string{"유연근무", "제 안내"}, chunks)

	_, err = LoadTextFile(filepath.Join(t.TempDir(), "missing.txt"), 4)
	assert.Error(t, err)
}

func TestChunkIds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"policy_chunk_0", "policy_chunk_1"}, ChunkIds("policy_chunk", 2))
	assert.Empty(t, ChunkIds("x", 0))
}
