package rag

import (
	"fmt"
	"os"
)

const DefaultChunkSize = 1000

// ChunkText - splits content into consecutive windows of chunkSize characters (runes, not bytes). The last chunk
// may be shorter. chunkSize <= 0 uses DefaultChunkSize.
func ChunkText(content string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	runes := []rune(content)
	chunks := make([]string, 0, len(runes)/chunkSize+1)
	for i := 0; i < len(runes); i += chunkSize {
		end := min(i+chunkSize, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// LoadTextFile - reads a UTF-8 text file and chunks it with ChunkText.
func LoadTextFile(path string, chunkSize int) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ChunkText(string(b), chunkSize), nil
}

// ChunkIds - stable ids for n chunks: prefix_0, prefix_1, ...
func ChunkIds(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s_%d", prefix, i)
	}
	return ids
}
