package conflict

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func mustInterval(t *testing.T, start, end string) Interval {
	t.Helper()
	iv, err := ParseInterval(start, end)
	if err != nil {
		t.Fatal(err)
	}
	return iv
}

// fakeScheduler records mutations and can fail deletes by ID.
type fakeScheduler struct {
	committed   []Committed
	deleted     []string
	failDelete  map[string]bool
	commitErr   error
	commits     int
	lastPayload any
}

func (f *fakeScheduler) ListCommitted(context.Context) ([]Committed, error) {
	return f.committed, nil
}

func (f *fakeScheduler) Commit(_ context.Context, payload any) (string, error) {
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.commits++
	f.lastPayload = payload
	return fmt.Sprintf("new-%d", f.commits), nil
}

func (f *fakeScheduler) Delete(_ context.Context, id string) error {
	if f.failDelete[id] {
		return fmt.Errorf("delete %s: backend unavailable", id)
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestOverlapsHalfOpen(t *testing.T) {
	a := mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z")
	cases := []struct {
		start, end string
		want       bool
	}{
		{"2026-08-24T10:30:00Z", "2026-08-24T11:30:00Z", true},
		{"2026-08-24T09:00:00Z", "2026-08-24T10:00:00Z", false}, // touches start
		{"2026-08-24T11:00:00Z", "2026-08-24T12:00:00Z", false}, // touches end
		{"2026-08-24T09:00:00Z", "2026-08-24T12:00:00Z", true},  // contains
		{"2026-08-24T10:15:00Z", "2026-08-24T10:45:00Z", true},  // contained
		{"2026-08-24T12:00:00Z", "2026-08-24T13:00:00Z", false},
	}
	for _, tc := range cases {
		b := mustInterval(t, tc.start, tc.end)
		if got := a.Overlaps(b); got != tc.want {
			t.Errorf("[%s,%s) overlaps = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestOverlapsAcrossOffsets(t *testing.T) {
	// 10:00Z and 03:00-07:00 are the same instant.
	a := mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z")
	b := mustInterval(t, "2026-08-24T03:30:00-07:00", "2026-08-24T04:30:00-07:00")
	if !a.Overlaps(b) {
		t.Error("offset-shifted identical instants should overlap")
	}
}

func TestParseIntervalRejectsNaiveTimestamps(t *testing.T) {
	_, err := ParseInterval("2026-08-24T10:00:00", "2026-08-24T11:00:00Z")
	if err == nil || !strings.Contains(err.Error(), "timezone offset") {
		t.Errorf("err = %v", err)
	}
}

func TestParseIntervalRejectsInvertedRange(t *testing.T) {
	if _, err := ParseInterval("2026-08-24T11:00:00Z", "2026-08-24T10:00:00Z"); err == nil {
		t.Error("expected start-not-before-end error")
	}
}

func TestDetectReturnsOverlapsInListedOrder(t *testing.T) {
	proposed := mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T12:00:00Z")
	committed := []Committed{
		{ID: "a", Interval: mustInterval(t, "2026-08-24T08:00:00Z", "2026-08-24T09:00:00Z")},
		{ID: "b", Interval: mustInterval(t, "2026-08-24T11:00:00Z", "2026-08-24T13:00:00Z")},
		{ID: "c", Interval: mustInterval(t, "2026-08-24T09:30:00Z", "2026-08-24T10:30:00Z")},
		{ID: "d", Interval: mustInterval(t, "2026-08-24T12:00:00Z", "2026-08-24T12:30:00Z")},
	}
	got := Detect(proposed, committed)
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Errorf("Detect = %+v", got)
	}
}

func TestScheduleConflictFreeCommitsDirectly(t *testing.T) {
	sched := &fakeScheduler{committed: []Committed{
		{ID: "a", Interval: mustInterval(t, "2026-08-24T08:00:00Z", "2026-08-24T09:00:00Z")},
	}}
	r := NewResolver(sched)

	out, err := r.Schedule(context.Background(),
		mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z"),
		map[string]any{"summary": "standup"}, PolicySkip)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Committed || out.CommittedID != "new-1" {
		t.Errorf("outcome = %+v", out)
	}
	if len(sched.deleted) != 0 {
		t.Errorf("conflict-free path deleted %v", sched.deleted)
	}
}

func TestScheduleSkipReportsConflicts(t *testing.T) {
	sched := &fakeScheduler{committed: []Committed{
		{ID: "busy", Interval: mustInterval(t, "2026-08-24T10:30:00Z", "2026-08-24T11:30:00Z")},
	}}
	r := NewResolver(sched)

	out, err := r.Schedule(context.Background(),
		mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z"), nil, PolicySkip)
	if err != nil {
		t.Fatal(err)
	}
	if out.Committed || sched.commits != 0 || len(sched.deleted) != 0 {
		t.Errorf("skip mutated: outcome=%+v deleted=%v commits=%d", out, sched.deleted, sched.commits)
	}
	if len(out.Skipped) != 1 || out.Skipped[0].ID != "busy" {
		t.Errorf("Skipped = %+v", out.Skipped)
	}
}

func TestReplaceDeletesAllThenCommits(t *testing.T) {
	sched := &fakeScheduler{}
	r := NewResolver(sched)
	req := &Request{
		Proposed: mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T12:00:00Z"),
		Payload:  map[string]any{"summary": "offsite"},
		Conflicts: []Committed{
			{ID: "c1", Interval: mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T10:30:00Z")},
			{ID: "c2", Interval: mustInterval(t, "2026-08-24T11:00:00Z", "2026-08-24T11:30:00Z")},
		},
		Policy: PolicyReplace,
	}

	out, err := r.Resolve(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Committed || len(out.Deleted) != 2 {
		t.Errorf("outcome = %+v", out)
	}
	if len(sched.deleted) != 2 || sched.commits != 1 {
		t.Errorf("deleted=%v commits=%d", sched.deleted, sched.commits)
	}
}

func TestReplacePartialDeleteFailureNeverCommits(t *testing.T) {
	sched := &fakeScheduler{failDelete: map[string]bool{"c2": true}}
	r := NewResolver(sched)
	req := &Request{
		Proposed: mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T12:00:00Z"),
		Conflicts: []Committed{
			{ID: "c1", Interval: mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T10:30:00Z")},
			{ID: "c2", Interval: mustInterval(t, "2026-08-24T11:00:00Z", "2026-08-24T11:30:00Z")},
		},
		Policy: PolicyReplace,
	}

	if _, err := r.Resolve(context.Background(), req); err == nil {
		t.Fatal("expected failure when a delete fails")
	}
	if sched.commits != 0 {
		t.Error("proposal was committed despite a failed delete")
	}
	// The first delete went through; the resolution still reports failure.
	if len(sched.deleted) != 1 || sched.deleted[0] != "c1" {
		t.Errorf("deleted = %v", sched.deleted)
	}
}

func TestDeleteFirstRemovesEarliestAndReportsRest(t *testing.T) {
	sched := &fakeScheduler{}
	r := NewResolver(sched)
	req := &Request{
		Proposed: mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T12:00:00Z"),
		Conflicts: []Committed{
			// Listed out of start order on purpose.
			{ID: "later", Interval: mustInterval(t, "2026-08-24T11:00:00Z", "2026-08-24T11:30:00Z")},
			{ID: "earlier", Interval: mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T10:30:00Z")},
		},
		Policy: PolicyDeleteFirst,
	}

	out, err := r.Resolve(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(sched.deleted) != 1 || sched.deleted[0] != "earlier" {
		t.Errorf("deleted = %v", sched.deleted)
	}
	if !out.Committed || len(out.Remaining) != 1 || out.Remaining[0].ID != "later" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestResolveWithoutConflictsCommitsDirectly(t *testing.T) {
	for _, policy := range []Policy{PolicySkip, PolicyReplace, PolicyDeleteFirst} {
		sched := &fakeScheduler{}
		r := NewResolver(sched)
		out, err := r.Resolve(context.Background(), &Request{
			Proposed: mustInterval(t, "2026-08-24T10:00:00Z", "2026-08-24T11:00:00Z"),
			Payload:  map[string]any{"summary": "standup"},
			Policy:   policy,
		})
		if err != nil {
			t.Fatalf("%v: %v", policy, err)
		}
		if !out.Committed || sched.commits != 1 || len(sched.deleted) != 0 {
			t.Errorf("%v: outcome=%+v deleted=%v commits=%d", policy, out, sched.deleted, sched.commits)
		}
	}
}

func TestParsePolicyUnknownAction(t *testing.T) {
	for _, action := range []string{"", "merge", "SKIP"} {
		if _, err := ParsePolicy(action); err == nil || !strings.Contains(err.Error(), "unknown action") {
			t.Errorf("ParsePolicy(%q) err = %v", action, err)
		}
	}
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(map[string]any{
		"event_details": map[string]any{
			"summary": "Workout",
			"start":   "2026-08-24T18:00:00-07:00",
			"end":     "2026-08-24T19:00:00-07:00",
		},
		"conflicting_events": []any{
			map[string]any{"id": "ev-1", "start": "2026-08-24T18:30:00-07:00", "end": "2026-08-24T19:30:00-07:00"},
		},
		"action": "replace",
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.Policy != PolicyReplace {
		t.Errorf("policy = %v", req.Policy)
	}
	if len(req.Conflicts) != 1 || req.Conflicts[0].ID != "ev-1" {
		t.Errorf("conflicts = %+v", req.Conflicts)
	}
	payload, ok := req.Payload.(map[string]any)
	if !ok || payload["summary"] != "Workout" {
		t.Errorf("payload = %+v", req.Payload)
	}
}

func TestParseRequestErrors(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"event_details": map[string]any{
				"start": "2026-08-24T18:00:00Z",
				"end":   "2026-08-24T19:00:00Z",
			},
			"action": "skip",
		}
	}

	args := base()
	args["action"] = "purge"
	if _, err := ParseRequest(args); err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Errorf("unknown action err = %v", err)
	}

	args = base()
	args["event_details"] = "not a map"
	if _, err := ParseRequest(args); err == nil {
		t.Error("expected event_details type error")
	}

	args = base()
	args["conflicting_events"] = []any{map[string]any{"start": "2026-08-24T18:00:00Z", "end": "2026-08-24T19:00:00Z"}}
	if _, err := ParseRequest(args); err == nil || !strings.Contains(err.Error(), "missing id") {
		t.Errorf("missing id err = %v", err)
	}
}
