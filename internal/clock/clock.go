package clock

import (
	"fmt"
	"strings"
	"time"
)

// Clock supplies the current time to operations scoped to "today".
type Clock interface {
	Now() time.Time
}

// System reports wall-clock time in Location (UTC when nil).
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(s.Location)
}

// Fixed always reports At.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }

// Parse reads an override time as RFC3339 or as a bare YYYY-MM-DD date,
// which is interpreted as midnight in loc.
func Parse(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse time: %q", value)
}
