package core

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// ErrTimestampRange is returned when a wall-clock or file modification time
// predates the Unix epoch.
var ErrTimestampRange = errors.New("timestamp predates the Unix epoch")

// Timestamp is a non-negative count of whole seconds since the Unix epoch.
type Timestamp struct {
	seconds int64
}

// NewTimestamp constructs a Timestamp from t, failing with
// ErrTimestampRange if t predates the epoch.
func NewTimestamp(t time.Time) (Timestamp, error) {
	unix := t.Unix()
	if unix < 0 {
		return Timestamp{}, ErrTimestampRange
	}

	return Timestamp{seconds: unix}, nil
}

// Now returns the current wall-clock time as a Timestamp.
func Now() (Timestamp, error) {
	return NewTimestamp(time.Now())
}

// Unix returns the number of seconds since the epoch.
func (ts Timestamp) Unix() int64 {
	return ts.seconds
}

// Time returns the UTC time.Time equivalent to ts.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.seconds, 0).UTC()
}

// Equal reports whether ts and other refer to the same second.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.seconds == other.seconds
}

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.seconds < other.seconds
}

// FormatUTC renders ts using layout in the UTC zone.
func (ts Timestamp) FormatUTC(layout string) string {
	return ts.Time().Format(layout)
}

// FormatIn renders ts using layout in the named zone (e.g. "America/New_York",
// "Local"). An unknown zone name is reported as an error.
func (ts Timestamp) FormatIn(layout, zoneName string) (string, error) {
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		return "", errors.Wrapf(err, "loading timezone %q", zoneName)
	}

	return ts.Time().In(loc).Format(layout), nil
}

// String renders ts as RFC 3339 in UTC.
func (ts Timestamp) String() string {
	return ts.FormatUTC(time.RFC3339)
}

// MarshalJSON renders ts as its plain integer unix-second value.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.seconds)
}

// UnmarshalJSON parses ts from a plain JSON integer.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var seconds int64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return errors.Wrap(err, "decoding timestamp")
	}

	if seconds < 0 {
		return ErrTimestampRange
	}

	ts.seconds = seconds

	return nil
}
