// Package conflict detects overlaps between a proposed time interval and
// intervals already committed to a scheduling collaborator, and applies a
// caller-chosen resolution policy before the commit.
package conflict

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Committed is an interval already held by the collaborator, addressable
// for deletion by its external ID.
type Committed struct {
	Interval
	ID string
}

// NewInterval validates Start < End.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("interval start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval parses RFC 3339 timestamps. Timestamps without an explicit
// offset are rejected rather than assumed to be local or UTC.
func ParseInterval(start, end string) (Interval, error) {
	s, err := parseOffsetTime(start)
	if err != nil {
		return Interval{}, fmt.Errorf("start: %w", err)
	}
	e, err := parseOffsetTime(end)
	if err != nil {
		return Interval{}, fmt.Errorf("end: %w", err)
	}
	return NewInterval(s, e)
}

func parseOffsetTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	// Distinguish a naive timestamp from garbage so the upstream error
	// tells the user what to fix.
	if _, naiveErr := time.Parse("2006-01-02T15:04:05", s); naiveErr == nil {
		return time.Time{}, fmt.Errorf("timestamp %q has no timezone offset", s)
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
}

// Overlaps reports whether two half-open intervals intersect. Touching
// boundaries (one ends exactly when the other starts) do not overlap.
// Comparison is instant-based, so differing offsets are already handled.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Detect returns the committed intervals that overlap the proposal, in
// the order the collaborator listed them.
func Detect(proposed Interval, committed []Committed) []Committed {
	var out []Committed
	for _, c := range committed {
		if proposed.Overlaps(c.Interval) {
			out = append(out, c)
		}
	}
	return out
}
