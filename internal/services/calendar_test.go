package services

import (
	"context"
	"testing"
	"time"

	"github.com/adjutant-ai/adjutant/internal/capability"
	"github.com/adjutant-ai/adjutant/internal/store"
)

func testCalendar(t *testing.T) (*Calendar, *store.EventStore) {
	t.Helper()
	db, err := store.Open(store.DriverSQLite, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	events := store.NewEventStore(db)
	return NewCalendar(events, nil), events
}

func invoke(t *testing.T, c capability.Collaborator, method string, args capability.Args) any {
	t.Helper()
	for _, m := range c.Methods() {
		if m.Name == method {
			out, err := m.Invoke(context.Background(), args)
			if err != nil {
				t.Fatalf("%s: %v", method, err)
			}
			return out
		}
	}
	t.Fatalf("method %s not found", method)
	return nil
}

func details(summary, start, end string) map[string]any {
	return map[string]any{"summary": summary, "start": start, "end": end}
}

func TestCalendarWriteEventConflictFree(t *testing.T) {
	cal, events := testCalendar(t)

	out := invoke(t, cal, "write_event", capability.Args{
		"event_details": details("Workout", "2026-08-24T18:00:00Z", "2026-08-24T19:00:00Z"),
	}).(map[string]any)
	if out["status"] != "created" || out["id"] == "" {
		t.Errorf("outcome = %v", out)
	}

	stored, err := events.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].Summary != "Workout" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestCalendarWriteEventReportsConflict(t *testing.T) {
	cal, _ := testCalendar(t)

	invoke(t, cal, "write_event", capability.Args{
		"event_details": details("Standup", "2026-08-24T10:30:00Z", "2026-08-24T11:30:00Z"),
	})

	// Proposing [10:00,11:00) against committed [10:30,11:30): skipped,
	// one conflict reported, nothing mutated.
	out := invoke(t, cal, "write_event", capability.Args{
		"event_details": details("Workout", "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z"),
	}).(map[string]any)
	if out["status"] != "conflict" {
		t.Fatalf("outcome = %v", out)
	}
	conflicts := out["conflicting_events"].([]map[string]any)
	if len(conflicts) != 1 {
		t.Errorf("conflicts = %v", conflicts)
	}

	stored, _ := cal.ListCommitted(context.Background())
	if len(stored) != 1 {
		t.Errorf("committed = %d, want 1", len(stored))
	}
}

func TestCalendarWriteEventTouchingBoundaryIsNotConflict(t *testing.T) {
	cal, _ := testCalendar(t)

	invoke(t, cal, "write_event", capability.Args{
		"event_details": details("First", "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z"),
	})
	out := invoke(t, cal, "write_event", capability.Args{
		"event_details": details("Second", "2026-08-24T11:00:00Z", "2026-08-24T12:00:00Z"),
	}).(map[string]any)
	if out["status"] != "created" {
		t.Errorf("back-to-back events should not conflict: %v", out)
	}
}

func TestCalendarResolveConflictReplace(t *testing.T) {
	cal, _ := testCalendar(t)
	ctx := context.Background()

	invoke(t, cal, "write_event", capability.Args{
		"event_details": details("Old", "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z"),
	})
	committed, _ := cal.ListCommitted(ctx)
	oldID := committed[0].ID

	out := invoke(t, cal, "resolve_calendar_conflict", capability.Args{
		"args": map[string]any{
			"event_details": details("New", "2026-08-24T10:30:00Z", "2026-08-24T11:30:00Z"),
			"conflicting_events": []any{
				map[string]any{"id": oldID, "start": "2026-08-24T10:00:00Z", "end": "2026-08-24T11:00:00Z"},
			},
			"action": "replace",
		},
	}).(map[string]any)
	if out["status"] != "created" {
		t.Fatalf("outcome = %v", out)
	}

	committed, _ = cal.ListCommitted(ctx)
	if len(committed) != 1 || committed[0].ID == oldID {
		t.Errorf("committed = %+v", committed)
	}
}

func TestCalendarResolveConflictWithoutConflictingEvents(t *testing.T) {
	cal, _ := testCalendar(t)
	ctx := context.Background()

	out := invoke(t, cal, "resolve_calendar_conflict", capability.Args{
		"args": map[string]any{
			"event_details": details("Solo", "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z"),
			"action":        "delete",
		},
	}).(map[string]any)
	if out["status"] != "created" {
		t.Fatalf("outcome = %v", out)
	}

	committed, _ := cal.ListCommitted(ctx)
	if len(committed) != 1 {
		t.Errorf("committed = %+v", committed)
	}
}

func TestCalendarResolveConflictUnknownAction(t *testing.T) {
	cal, _ := testCalendar(t)
	for _, m := range cal.Methods() {
		if m.Name != "resolve_calendar_conflict" {
			continue
		}
		_, err := m.Invoke(context.Background(), capability.Args{
			"args": map[string]any{
				"event_details": details("X", "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z"),
				"action":        "obliterate",
			},
		})
		if err == nil {
			t.Error("expected unknown-action error")
		}
		return
	}
	t.Fatal("resolve_calendar_conflict not found")
}

func TestCalendarDeleteEventsInRange(t *testing.T) {
	cal, _ := testCalendar(t)

	invoke(t, cal, "write_event", capability.Args{
		"event_details": details("Morning", "2026-08-24T09:00:00Z", "2026-08-24T10:00:00Z"),
	})
	invoke(t, cal, "write_event", capability.Args{
		"event_details": details("Evening", "2026-08-24T18:00:00Z", "2026-08-24T19:00:00Z"),
	})

	out := invoke(t, cal, "delete_events_in_range", capability.Args{
		"start": "2026-08-24T08:00:00Z",
		"end":   "2026-08-24T12:00:00Z",
	}).(map[string]any)
	if out["deleted"] != 1 {
		t.Errorf("deleted = %v", out["deleted"])
	}

	committed, _ := cal.ListCommitted(context.Background())
	if len(committed) != 1 {
		t.Errorf("remaining = %d", len(committed))
	}
}

func TestCalendarGetUpcomingEventsTimeframe(t *testing.T) {
	cal, _ := testCalendar(t)
	cal.now = func() time.Time {
		return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	}

	invoke(t, cal, "write_event", capability.Args{
		"event_details": details("Tomorrow", "2026-08-24T18:00:00Z", "2026-08-24T19:00:00Z"),
	})
	invoke(t, cal, "write_event", capability.Args{
		"event_details": details("Next month", "2026-09-20T18:00:00Z", "2026-09-20T19:00:00Z"),
	})

	out := invoke(t, cal, "get_upcoming_events", capability.Args{
		"timeframe": "tomorrow", "max_results": 10,
	}).([]map[string]any)
	if len(out) != 1 || out[0]["summary"] != "Tomorrow" {
		t.Errorf("events = %v", out)
	}
}
