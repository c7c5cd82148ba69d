package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

type fakeExecutor struct {
	mu    sync.Mutex
	calls []string
	args  []capability.Args
	err   error
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args capability.Args) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	if f.err != nil {
		return nil, f.err
	}
	return map[string]any{"ok": true}, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, job, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, job+": "+content)
	return nil
}

func TestRunJobExecutesAndNotifies(t *testing.T) {
	exec := &fakeExecutor{}
	notif := &fakeNotifier{}
	s := New(exec, notif, "", time.Second)

	s.runJob(Job{
		Name:       "morning-agenda",
		Capability: "get_calendar_events",
		Args:       map[string]any{"timeframe": "today"},
	})

	if len(exec.calls) != 1 || exec.calls[0] != "get_calendar_events" {
		t.Errorf("calls = %v", exec.calls)
	}
	if exec.args[0]["timeframe"] != "today" {
		t.Errorf("args = %v", exec.args[0])
	}
	if len(notif.messages) != 1 {
		t.Fatalf("messages = %v", notif.messages)
	}
}

func TestRunJobFailureDoesNotNotify(t *testing.T) {
	exec := &fakeExecutor{err: fmt.Errorf("down")}
	notif := &fakeNotifier{}
	s := New(exec, notif, "", time.Second)

	s.runJob(Job{Name: "j", Capability: "get_tasks"})
	if len(notif.messages) != 0 {
		t.Errorf("messages = %v", notif.messages)
	}
}

func TestAddJobValidatesCronSpec(t *testing.T) {
	s := New(&fakeExecutor{}, nil, "", time.Second)
	err := s.AddJob(Job{Name: "bad", Capability: "get_tasks", Cron: "not a cron spec"})
	if err == nil {
		t.Error("expected cron spec error")
	}
}

func TestAddRemovePersistsDynamicJobs(t *testing.T) {
	dir := t.TempDir()
	s := New(&fakeExecutor{}, nil, dir, time.Second)

	if err := s.AddJob(Job{Name: "daily", Capability: "get_calendar_events", Cron: "0 7 * * *"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, dynamicJobsFile)); err != nil {
		t.Fatalf("jobs file not written: %v", err)
	}

	// A fresh scheduler picks the dynamic job back up.
	s2 := New(&fakeExecutor{}, nil, dir, time.Second)
	if err := s2.Start(nil); err != nil {
		t.Fatal(err)
	}
	defer s2.Stop()
	jobs := s2.Jobs()
	if len(jobs) != 1 || jobs[0].Name != "daily" || jobs[0].Source != "dynamic" {
		t.Fatalf("jobs = %+v", jobs)
	}

	if err := s2.RemoveJob("daily"); err != nil {
		t.Fatal(err)
	}
	if len(s2.Jobs()) != 0 {
		t.Error("job not removed")
	}
}

func TestConfigJobsAreProtected(t *testing.T) {
	s := New(&fakeExecutor{}, nil, "", time.Second)
	if err := s.Start([]Job{{Name: "weekly", Capability: "get_tasks", Cron: "0 9 * * 1"}}); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := s.RemoveJob("weekly"); err != ErrConfigProtected {
		t.Errorf("err = %v", err)
	}
}

func TestDuplicateJobName(t *testing.T) {
	s := New(&fakeExecutor{}, nil, "", time.Second)
	if err := s.AddJob(Job{Name: "x", Capability: "get_tasks", Cron: "@hourly"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddJob(Job{Name: "x", Capability: "get_tasks", Cron: "@hourly"}); err == nil {
		t.Error("expected duplicate error")
	}
}

func TestPausedJobIsNotScheduled(t *testing.T) {
	s := New(&fakeExecutor{}, nil, "", time.Second)
	if err := s.AddJob(Job{Name: "p", Capability: "get_tasks", Cron: "@hourly", Paused: true}); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.entries["p"]; ok {
		t.Error("paused job got a cron entry")
	}
	if len(s.Jobs()) != 1 {
		t.Error("paused job should still be listed")
	}
}
