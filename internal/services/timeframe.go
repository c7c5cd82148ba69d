// Package services implements the local collaborators the engine can
// discover: calendar, mail, tasks, drive, sheets and maps.
package services

import (
	"strings"
	"time"
)

// ResolveTimeframe maps a handful of everyday phrases to a half-open
// [from, to) range relative to now. Unrecognized phrases return ok=false
// so callers can fall back to model-based extraction.
func ResolveTimeframe(phrase string, now time.Time) (from, to time.Time, ok bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(strings.TrimSpace(phrase)) {
	case "today":
		return day, day.AddDate(0, 0, 1), true
	case "tomorrow":
		return day.AddDate(0, 0, 1), day.AddDate(0, 0, 2), true
	case "yesterday":
		return day.AddDate(0, 0, -1), day, true
	case "this week":
		start := startOfWeek(day)
		return start, start.AddDate(0, 0, 7), true
	case "next week":
		start := startOfWeek(day).AddDate(0, 0, 7)
		return start, start.AddDate(0, 0, 7), true
	}
	return time.Time{}, time.Time{}, false
}

// startOfWeek returns the Monday at or before d.
func startOfWeek(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
