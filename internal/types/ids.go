package types

import (
	"time"

	"github.com/google/uuid"
)

// EventID is a UUIDv7 event identifier.
type EventID string

// CallID is a UUIDv7 identifier for one bridge call.
type CallID string

// NewEventID generates a UUIDv7 event identifier.
func NewEventID() EventID {
	return EventID(uuid.Must(uuid.NewV7()).String())
}

// NewCallID generates a UUIDv7 call identifier. Ordering by id orders by
// call start.
func NewCallID() CallID {
	return CallID(uuid.Must(uuid.NewV7()).String())
}

// ParseEventID returns s as an EventID if it is a valid UUID.
func ParseEventID(s string) (EventID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return EventID(s), nil
}

// EventIDTime returns the creation time embedded in id, or the zero time
// when id does not parse.
func EventIDTime(id EventID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
