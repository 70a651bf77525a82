package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingValueScan(t *testing.T) {
	t.Parallel()

	val, err := Embedding{0.5, -1, 2}.Value()
	assert.NoError(t, err)
	assert.Equal(t, `[0.5,-1,2]`, string(val.([]byte)))

	val, err = Embedding(nil).Value()
	assert.NoError(t, err)
	assert.Equal(t, `[]`, string(val.([]byte)))

	var e Embedding
	assert.NoError(t, e.Scan([]byte(`[1,2.5]`)))
	assert.Equal(t, Embedding{1, 2.5}, e)

	assert.NoError(t, e.Scan(`[3]`))
	assert.Equal(t, Embedding{3}, e)

	assert.NoError(t, e.Scan(nil))
	assert.Nil(t, e)

	assert.Error(t, e.Scan(42))
	assert.Error(t, e.Scan("not json"))
}
