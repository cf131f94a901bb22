package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Interval is a half-open [Start, End) time range. Both bounds are kept in
// UTC; callers convert local wall-clock boundaries before constructing one.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval creates a validated Interval with both bounds normalized to UTC
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start.UTC(), End: end.UTC()}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate checks that the interval is non-empty
func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return goerr.New("interval bounds are required")
	}
	if !iv.End.After(iv.Start) {
		return goerr.New("interval end must be after start",
			goerr.V("start", iv.Start), goerr.V("end", iv.End))
	}
	return nil
}

// Duration returns the length of the interval
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the two intervals share any instant
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Touches reports whether the intervals are back-to-back with zero gap
func (iv Interval) Touches(other Interval) bool {
	return iv.End.Equal(other.Start) || other.End.Equal(iv.Start)
}

// Contains reports whether t falls within [Start, End)
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// String renders the interval in RFC3339 for logs and error values
func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}
