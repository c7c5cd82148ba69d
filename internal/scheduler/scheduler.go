// Package scheduler runs capabilities on cron schedules and hands their
// output to a notifier. Jobs come from config or are added at runtime;
// dynamic jobs persist across restarts.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

// Executor invokes a capability by public name. The descriptor store
// satisfies this.
type Executor interface {
	Execute(ctx context.Context, name string, args capability.Args) (any, error)
}

// Notifier receives each job run's outcome.
type Notifier interface {
	Notify(ctx context.Context, job, content string) error
}

// Job is one scheduled capability invocation.
type Job struct {
	Name       string         `yaml:"name"`
	Cron       string         `yaml:"cron"`
	Capability string         `yaml:"capability"`
	Args       map[string]any `yaml:"args,omitempty"`
	Paused     bool           `yaml:"paused,omitempty"`
	Source     string         `yaml:"source,omitempty"` // "config" or "dynamic"
}

// ErrConfigProtected rejects runtime mutation of config-defined jobs.
var ErrConfigProtected = fmt.Errorf("config-defined jobs cannot be modified or removed")

const dynamicJobsFile = "jobs.yaml"

// Scheduler owns the cron runner and the job table.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	jobs     map[string]Job
	entries  map[string]cron.EntryID
	exec     Executor
	notifier Notifier
	dataDir  string
	timeout  time.Duration
}

// New creates a stopped scheduler. dataDir may be empty to disable
// persistence of dynamic jobs; timeout bounds each job run.
func New(exec Executor, notifier Notifier, dataDir string, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		cron:     cron.New(),
		jobs:     make(map[string]Job),
		entries:  make(map[string]cron.EntryID),
		exec:     exec,
		notifier: notifier,
		dataDir:  dataDir,
		timeout:  timeout,
	}
}

// Start registers config jobs plus persisted dynamic jobs and starts the
// cron runner. A job that fails to register is logged and skipped so one
// bad entry cannot keep the rest down.
func (s *Scheduler) Start(configJobs []Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range configJobs {
		j.Source = "config"
		if err := s.add(j); err != nil {
			log.Printf("scheduler: skipping config job %q: %v", j.Name, err)
		}
	}
	dynamic, err := s.loadDynamic()
	if err != nil {
		log.Printf("scheduler: loading dynamic jobs: %v", err)
	}
	for _, j := range dynamic {
		j.Source = "dynamic"
		if err := s.add(j); err != nil {
			log.Printf("scheduler: skipping dynamic job %q: %v", j.Name, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron runner and waits for in-flight runs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// AddJob registers a dynamic job and persists the dynamic set.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Source = "dynamic"
	if err := s.add(job); err != nil {
		return err
	}
	return s.persistDynamic()
}

// RemoveJob unregisters a dynamic job by name.
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	if job.Source == "config" {
		return ErrConfigProtected
	}
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
	delete(s.jobs, name)
	return s.persistDynamic()
}

// Jobs returns a snapshot of the job table.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// add registers a job. Caller holds the lock.
func (s *Scheduler) add(job Job) error {
	if job.Name == "" || job.Capability == "" {
		return fmt.Errorf("job needs a name and a capability")
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already exists", job.Name)
	}
	if !job.Paused {
		id, err := s.cron.AddFunc(job.Cron, func() { s.runJob(job) })
		if err != nil {
			return fmt.Errorf("cron spec %q: %w", job.Cron, err)
		}
		s.entries[job.Name] = id
	}
	s.jobs[job.Name] = job
	return nil
}

// runJob executes one scheduled invocation with a bounded deadline.
func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.exec.Execute(ctx, job.Capability, capability.Args(job.Args))
	if err != nil {
		log.Printf("scheduler: job %q: %s failed: %v", job.Name, job.Capability, err)
		return
	}
	content := serialize(result)
	if s.notifier == nil {
		log.Printf("scheduler: job %q: %s", job.Name, content)
		return
	}
	if err := s.notifier.Notify(ctx, job.Name, content); err != nil {
		log.Printf("scheduler: job %q: notify: %v", job.Name, err)
	}
}

func (s *Scheduler) dynamicPath() string {
	return filepath.Join(s.dataDir, dynamicJobsFile)
}

func (s *Scheduler) loadDynamic() ([]Job, error) {
	if s.dataDir == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.dynamicPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var jobs []Job
	if err := yaml.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.dynamicPath(), err)
	}
	return jobs, nil
}

// persistDynamic writes the dynamic jobs. Caller holds the lock.
func (s *Scheduler) persistDynamic() error {
	if s.dataDir == "" {
		return nil
	}
	var dynamic []Job
	for _, j := range s.jobs {
		if j.Source == "dynamic" {
			dynamic = append(dynamic, j)
		}
	}
	data, err := yaml.Marshal(dynamic)
	if err != nil {
		return fmt.Errorf("marshaling jobs: %w", err)
	}
	if err := os.MkdirAll(s.dataDir, 0700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	return os.WriteFile(s.dynamicPath(), data, 0600)
}

func serialize(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}
