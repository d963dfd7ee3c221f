package courrier

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a time-ordered unique identifier (UUIDv7: a millisecond
// timestamp followed by random bits)
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Now is the clock used when none is injected. Times are kept in UTC so
// they compare equal after a JSON round trip.
func Now() time.Time {
	return time.Now().UTC()
}
