package inter

import (
	"time"
)

// Timestamp is a block timestamp, in unix seconds. Headers carry seconds
// rather than nanoseconds because the minimum block interval on an account
// chain is expressed in whole seconds.
type Timestamp uint64

// Now returns the current wall-clock time as a Timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().Unix())
}

// FromTime converts a time.Time to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.Unix())
}

// Time converts the Timestamp to time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}
