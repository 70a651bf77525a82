package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInstanceConfigDefaults(t *testing.T) {
	cnf, err := NewInstanceConfig()
	assert.NoError(t, err)
	assert.NotNil(t, cnf)
	assert.Equal(t, BackendNone, cnf.ClassifierBackend)
	assert.Equal(t, 1000, cnf.RagChunkSize)
	assert.Equal(t, "omni-moderation-latest", cnf.OpenAIModel)
}

func TestNewInstanceConfigBackend(t *testing.T) {
	t.Setenv("SS_CLASSIFIER_BACKEND", "ONNX")
	cnf, err := NewInstanceConfig()
	assert.NoError(t, err)
	assert.Equal(t, BackendOnnx, cnf.ClassifierBackend)

	t.Setenv("SS_CLASSIFIER_BACKEND", "torch")
	_, err = NewInstanceConfig()
	assert.Error(t, err)
}

func TestBackendKindDecode(t *testing.T) {
	var k BackendKind
	assert.NoError(t, k.Decode(""))
	assert.Equal(t, BackendNone, k)
	assert.NoError(t, k.Decode(" openai "))
	assert.Equal(t, BackendOpenAI, k)
	assert.EqualError(t, k.Decode("gpu"), "unsupported classifier backend 'gpu'")
}

func TestLoadKeywordLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	err := os.WriteFile(path, []byte(`
dangerous_keywords:
  - bomb
  - "  "
  - poison
refusal_patterns: ["cannot", "will not "]
`), 0o644)
	assert.NoError(t, err)

	lists, err := LoadKeywordLists(path)
	assert.NoError(t, err)
	assert.Equal(t, []string{"bomb", "poison"}, lists.DangerousKeywords)
	assert.Equal(t, []string{"cannot", "will not"}, lists.RefusalPatterns)

	_, err = LoadKeywordLists("")
	assert.Error(t, err)
	_, err = LoadKeywordLists(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
