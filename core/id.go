package core

import (
	"strconv"

	"github.com/google/uuid"
)

// NewID returns a collision-resistant record id: a UUIDv7, which embeds
// a millisecond timestamp followed by a random suffix. Two snapshots
// inserting concurrently cannot collide on commit.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}

// NextMonotonicID returns max(existing numeric id) + 1 for the given
// table. This is the legacy scheme: it is only safe with a single
// writer, since two open snapshots compute the same max and collide on
// commit. Non-numeric ids are ignored.
func NextMonotonicID(records []Record) string {
	max := int64(0)
	for _, record := range records {
		id, err := strconv.ParseInt(record.ID(), 10, 64)
		if err != nil {
			continue
		}
		if id > max {
			max = id
		}
	}
	return strconv.FormatInt(max+1, 10)
}
