package storage

import (
	"time"

	"github.com/segmentio/ksuid"
)

// NextIdAt - a new evaluation ID carrying the given creation time, so IDs sort by when the evaluation happened.
func NextIdAt(at time.Time) string {
	id, err := ksuid.NewRandomWithTime(at)
	if err != nil {
		// Only fails if the random source does, in which case the global generator is no worse.
		return ksuid.New().String()
	}
	return id.String()
}

// IdTime - the creation time embedded in an ID from NextIdAt. Second precision.
func IdTime(id string) (time.Time, error) {
	parsed, err := ksuid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.Time(), nil
}
