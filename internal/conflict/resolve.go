package conflict

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// Policy selects how a detected conflict is handled.
type Policy int

const (
	// PolicySkip leaves everything untouched and reports what blocked
	// the write.
	PolicySkip Policy = iota
	// PolicyReplace deletes every conflicting interval, then commits.
	PolicyReplace
	// PolicyDeleteFirst deletes only the earliest-starting conflict,
	// then commits; the rest are reported as still outstanding.
	PolicyDeleteFirst
)

func (p Policy) String() string {
	switch p {
	case PolicySkip:
		return "skip"
	case PolicyReplace:
		return "replace"
	case PolicyDeleteFirst:
		return "delete"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy maps a wire action to a policy. Unknown actions are an
// error, never a silent default.
func ParsePolicy(action string) (Policy, error) {
	switch action {
	case "skip":
		return PolicySkip, nil
	case "replace":
		return PolicyReplace, nil
	case "delete":
		return PolicyDeleteFirst, nil
	}
	return 0, fmt.Errorf("unknown action %q", action)
}

// Scheduler is the collaborator surface a scheduling capability must
// expose for conflict handling.
type Scheduler interface {
	ListCommitted(ctx context.Context) ([]Committed, error)
	Commit(ctx context.Context, payload any) (string, error)
	Delete(ctx context.Context, id string) error
}

// Request describes one resolution attempt. It lives for the duration of
// the attempt and is never persisted.
type Request struct {
	Proposed  Interval
	Payload   any
	Conflicts []Committed
	Policy    Policy
}

// Outcome reports what a resolution did.
type Outcome struct {
	// Committed is true when the proposed interval was written.
	Committed   bool
	CommittedID string
	// Skipped holds the conflicts that blocked a skipped write.
	Skipped []Committed
	// Remaining holds conflicts left in place by PolicyDeleteFirst.
	Remaining []Committed
	// Deleted holds the IDs of intervals removed to make room.
	Deleted []string
}

// Resolver applies policies against a scheduling collaborator.
type Resolver struct {
	sched Scheduler
}

func NewResolver(sched Scheduler) *Resolver {
	return &Resolver{sched: sched}
}

// Schedule is the full commit path: list, detect, resolve if needed.
// A conflict-free proposal commits directly with no resolution step.
func (r *Resolver) Schedule(ctx context.Context, proposed Interval, payload any, policy Policy) (*Outcome, error) {
	committed, err := r.sched.ListCommitted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list committed intervals: %w", err)
	}
	conflicts := Detect(proposed, committed)
	if len(conflicts) == 0 {
		id, err := r.sched.Commit(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return &Outcome{Committed: true, CommittedID: id}, nil
	}
	return r.Resolve(ctx, &Request{Proposed: proposed, Payload: payload, Conflicts: conflicts, Policy: policy})
}

// Resolve applies the request's policy to its already-detected conflicts.
// A request carrying no conflicts commits directly regardless of policy;
// callers may pass through whatever conflict list the wire gave them.
func (r *Resolver) Resolve(ctx context.Context, req *Request) (*Outcome, error) {
	if len(req.Conflicts) == 0 {
		id, err := r.sched.Commit(ctx, req.Payload)
		if err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return &Outcome{Committed: true, CommittedID: id}, nil
	}
	switch req.Policy {
	case PolicySkip:
		return &Outcome{Skipped: req.Conflicts}, nil
	case PolicyReplace:
		return r.replace(ctx, req)
	case PolicyDeleteFirst:
		return r.deleteFirst(ctx, req)
	}
	return nil, fmt.Errorf("unknown action %q", req.Policy)
}

// replace deletes every conflict before committing. A failed delete
// aborts the whole resolution; committing after a partial clear would
// double-book on top of orphaned deletions.
func (r *Resolver) replace(ctx context.Context, req *Request) (*Outcome, error) {
	deleted := make([]string, 0, len(req.Conflicts))
	for _, c := range req.Conflicts {
		if err := r.sched.Delete(ctx, c.ID); err != nil {
			log.Printf("conflict: replace aborted, delete %s failed after %d deletions: %v", c.ID, len(deleted), err)
			return nil, fmt.Errorf("replace: delete %s: %w", c.ID, err)
		}
		deleted = append(deleted, c.ID)
	}
	id, err := r.sched.Commit(ctx, req.Payload)
	if err != nil {
		return nil, fmt.Errorf("replace: commit after clearing %d conflicts: %w", len(deleted), err)
	}
	return &Outcome{Committed: true, CommittedID: id, Deleted: deleted}, nil
}

// deleteFirst removes the earliest-starting conflict only. Remaining
// conflicts come back in the outcome so the caller does not present the
// slot as fully cleared.
func (r *Resolver) deleteFirst(ctx context.Context, req *Request) (*Outcome, error) {
	conflicts := make([]Committed, len(req.Conflicts))
	copy(conflicts, req.Conflicts)
	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Start.Before(conflicts[j].Start)
	})

	first := conflicts[0]
	if err := r.sched.Delete(ctx, first.ID); err != nil {
		return nil, fmt.Errorf("delete earliest conflict %s: %w", first.ID, err)
	}
	id, err := r.sched.Commit(ctx, req.Payload)
	if err != nil {
		return nil, fmt.Errorf("commit after deleting %s: %w", first.ID, err)
	}
	return &Outcome{
		Committed:   true,
		CommittedID: id,
		Deleted:     []string{first.ID},
		Remaining:   conflicts[1:],
	}, nil
}
