package services

import (
	"context"
	"fmt"
	"time"

	"github.com/adjutant-ai/adjutant/internal/capability"
	"github.com/adjutant-ai/adjutant/internal/conflict"
	"github.com/adjutant-ai/adjutant/internal/metrics"
	"github.com/adjutant-ai/adjutant/internal/store"
)

// Calendar is the scheduling collaborator. Commits route through the
// conflict resolver; the conflict-free path writes directly.
type Calendar struct {
	events   *store.EventStore
	resolver *conflict.Resolver
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewCalendar wires the collaborator. m may be nil.
func NewCalendar(events *store.EventStore, m *metrics.Metrics) *Calendar {
	c := &Calendar{events: events, metrics: m, now: time.Now}
	c.resolver = conflict.NewResolver(c)
	return c
}

// ListCommitted satisfies conflict.Scheduler.
func (c *Calendar) ListCommitted(ctx context.Context) ([]conflict.Committed, error) {
	events, err := c.events.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]conflict.Committed, 0, len(events))
	for _, ev := range events {
		out = append(out, conflict.Committed{
			ID:       ev.ID,
			Interval: conflict.Interval{Start: ev.Start, End: ev.End},
		})
	}
	return out, nil
}

// Commit satisfies conflict.Scheduler. The payload is the event_details
// map carried through the resolution request.
func (c *Calendar) Commit(ctx context.Context, payload any) (string, error) {
	details, ok := payload.(map[string]any)
	if !ok {
		return "", fmt.Errorf("calendar commit: payload must be an object, got %T", payload)
	}
	iv, err := conflict.ParseInterval(str(details, "start"), str(details, "end"))
	if err != nil {
		return "", fmt.Errorf("calendar commit: %w", err)
	}
	return c.events.Insert(ctx, store.Event{
		Summary:     str(details, "summary"),
		Description: str(details, "description"),
		Location:    str(details, "location"),
		Start:       iv.Start,
		End:         iv.End,
	})
}

// Delete satisfies conflict.Scheduler.
func (c *Calendar) Delete(ctx context.Context, id string) error {
	return c.events.Delete(ctx, id)
}

// Methods exposes the discoverable surface.
func (c *Calendar) Methods() []capability.Method {
	return []capability.Method{
		{
			Name: "get_upcoming_events",
			Params: []capability.ParamSpec{
				{Name: "timeframe", Type: capability.TypeString, HasDefault: true, Default: "today"},
				{Name: "max_results", Type: capability.TypeInt, HasDefault: true, Default: 10},
			},
			Invoke: c.getUpcomingEvents,
		},
		{
			Name: "write_event",
			Params: []capability.ParamSpec{
				{Name: "event_details", Type: capability.TypeJSON, Required: true},
			},
			Invoke: c.writeEvent,
		},
		{
			Name: "resolve_calendar_conflict",
			Params: []capability.ParamSpec{
				{Name: "args", Type: capability.TypeJSON, Required: true},
			},
			Invoke: c.resolveConflict,
		},
		{
			Name: "delete_events_in_range",
			Params: []capability.ParamSpec{
				{Name: "start", Type: capability.TypeString, Required: true},
				{Name: "end", Type: capability.TypeString, Required: true},
			},
			Invoke: c.deleteEventsInRange,
		},
	}
}

func (c *Calendar) getUpcomingEvents(ctx context.Context, args capability.Args) (any, error) {
	from, to, ok := ResolveTimeframe(stringArg(args, "timeframe"), c.now())
	if !ok {
		// Unrecognized phrase: show the coming week.
		from = c.now()
		to = from.AddDate(0, 0, 7)
	}
	events, err := c.events.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	max := intArg(args, "max_results", 10)
	if max > 0 && len(events) > max {
		events = events[:max]
	}
	out := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		out = append(out, eventMap(ev))
	}
	return out, nil
}

func (c *Calendar) writeEvent(ctx context.Context, args capability.Args) (any, error) {
	details := mapArg(args, "event_details")
	if details == nil {
		return nil, fmt.Errorf("event_details is required")
	}
	iv, err := conflict.ParseInterval(str(details, "start"), str(details, "end"))
	if err != nil {
		return nil, err
	}
	// New events never overwrite silently. Conflicts come back to the
	// user, who picks a resolution action for the follow-up call.
	out, err := c.resolver.Schedule(ctx, iv, details, conflict.PolicySkip)
	if err != nil {
		return nil, err
	}
	if !out.Committed {
		c.metrics.Conflict()
	}
	return outcomeMap(out), nil
}

func (c *Calendar) resolveConflict(ctx context.Context, args capability.Args) (any, error) {
	raw := mapArg(args, "args")
	if raw == nil {
		return nil, fmt.Errorf("resolution arguments are required")
	}
	req, err := conflict.ParseRequest(raw)
	if err != nil {
		return nil, err
	}
	out, err := c.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return outcomeMap(out), nil
}

func (c *Calendar) deleteEventsInRange(ctx context.Context, args capability.Args) (any, error) {
	iv, err := conflict.ParseInterval(stringArg(args, "start"), stringArg(args, "end"))
	if err != nil {
		return nil, err
	}
	committed, err := c.ListCommitted(ctx)
	if err != nil {
		return nil, err
	}
	var deleted []string
	for _, cm := range conflict.Detect(iv, committed) {
		if err := c.events.Delete(ctx, cm.ID); err != nil {
			return nil, fmt.Errorf("delete %s (removed %d so far): %w", cm.ID, len(deleted), err)
		}
		deleted = append(deleted, cm.ID)
	}
	return map[string]any{"deleted": len(deleted), "ids": deleted}, nil
}

func eventMap(ev store.Event) map[string]any {
	return map[string]any{
		"id":       ev.ID,
		"summary":  ev.Summary,
		"location": ev.Location,
		"start":    ev.Start.Format(time.RFC3339),
		"end":      ev.End.Format(time.RFC3339),
	}
}

func outcomeMap(out *conflict.Outcome) map[string]any {
	m := map[string]any{}
	if out.Committed {
		m["status"] = "created"
		m["id"] = out.CommittedID
	} else {
		m["status"] = "conflict"
	}
	if len(out.Skipped) != 0 {
		m["conflicting_events"] = committedMaps(out.Skipped)
	}
	if len(out.Remaining) != 0 {
		m["remaining_conflicts"] = committedMaps(out.Remaining)
	}
	if len(out.Deleted) != 0 {
		m["deleted"] = out.Deleted
	}
	return m
}

func committedMaps(items []conflict.Committed) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, c := range items {
		out = append(out, map[string]any{
			"id":    c.ID,
			"start": c.Start.Format(time.RFC3339),
			"end":   c.End.Format(time.RFC3339),
		})
	}
	return out
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
