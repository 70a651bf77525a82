package storage

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextIdAtUnique(t *testing.T) {
	t.Parallel()

	// Same second for every ID, so uniqueness rests on the random payload alone.
	now := time.Now()
	numIds := 100000
	seen := make(map[string]bool)
	for i := range numIds {
		id := NextIdAt(now)
		if seen[id] {
			t.Errorf("ID %s is repeated on loop %d", id, i)
		}
		seen[id] = true
	}
}

func TestNextIdAtSortsByTime(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ids := []string{
		NextIdAt(base.Add(2 * time.Hour)),
		NextIdAt(base),
		NextIdAt(base.Add(1 * time.Hour)),
	}
	sorted := append([]string{}, ids...)
	sort.Strings(sorted)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]}, sorted)

	at, err := IdTime(ids[2])
	assert.NoError(t, err)
	assert.True(t, at.Equal(base.Add(1*time.Hour)))

	_, err = IdTime("not an id")
	assert.Error(t, err)
}
