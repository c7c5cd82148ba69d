// Package engine drives one conversation turn through a bounded state
// machine: decide what to do, optionally invoke a capability, summarize
// the result. Every collaborator call carries a deadline and every
// failure mode ends in a user-facing sentence, never a propagated error.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adjutant-ai/adjutant/internal/adapter"
	"github.com/adjutant-ai/adjutant/internal/capability"
	"github.com/adjutant-ai/adjutant/internal/history"
	"github.com/adjutant-ai/adjutant/internal/metrics"
	"github.com/adjutant-ai/adjutant/internal/provider"
)

// Turn states. A turn moves strictly forward; there is no cycle back
// into thinking within one turn.
const (
	StateThinking  = "THINKING"
	StateToolCall  = "TOOL_CALL"
	StateSummarize = "SUMMARIZE"
	StateDone      = "DONE"
	StateError     = "ERROR"
)

// Timeouts bound each collaborator boundary. Zero fields take defaults.
type Timeouts struct {
	Decide     time.Duration
	Summarize  time.Duration
	Capability time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Decide <= 0 {
		t.Decide = 15 * time.Second
	}
	if t.Summarize <= 0 {
		t.Summarize = 15 * time.Second
	}
	if t.Capability <= 0 {
		t.Capability = 30 * time.Second
	}
	return t
}

// Result is the record of one finished turn.
type Result struct {
	TurnID     string
	State      string
	Capability string
	Emitted    []string
}

// Engine coordinates the collaborators for each turn.
type Engine struct {
	llm       provider.Provider
	caps      *capability.Store
	adapter   *adapter.Adapter
	ring      *history.Ring
	sessions  history.SessionStore
	metrics   *metrics.Metrics
	timeouts  Timeouts
	detectors []detector

	// mu serializes turn finalization: the ring append and the session
	// log writes for a turn form one critical section.
	mu  sync.Mutex
	now func() time.Time
}

// New wires an engine. metrics may be nil.
func New(llm provider.Provider, caps *capability.Store, adp *adapter.Adapter, ring *history.Ring, sessions history.SessionStore, m *metrics.Metrics, timeouts Timeouts) *Engine {
	return &Engine{
		llm:      llm,
		caps:     caps,
		adapter:  adp,
		ring:     ring,
		sessions: sessions,
		metrics:  m,
		timeouts: timeouts.withDefaults(),
		detectors: []detector{
			&markerDetector{caps: caps},
			&prefixDetector{caps: caps},
			&secondaryDetector{llm: llm, caps: caps},
		},
		now: time.Now,
	}
}

// turnCtx is one turn's working state, owned by a single Turn call.
type turnCtx struct {
	id        string
	sessionID string
	input     string
	state     string
	decision  Decision
	desc      *capability.Descriptor
	rawResult any
	emitted   []string
	emit      func(string)
	startedAt time.Time
}

func (t *turnCtx) say(s string) {
	t.emitted = append(t.emitted, s)
	if t.emit != nil {
		t.emit(s)
	}
}

// Turn processes one user message to a terminal state. emit, when not
// nil, receives each user-facing string as it is produced; the same
// strings are returned in the Result. Turn never returns an error: all
// failures surface as emitted text.
func (e *Engine) Turn(ctx context.Context, sessionID, text string, emit func(string)) *Result {
	t := &turnCtx{
		id:        uuid.NewString(),
		sessionID: sessionID,
		input:     text,
		state:     StateThinking,
		emit:      emit,
		startedAt: e.now(),
	}

	e.think(ctx, t)
	if t.state == StateToolCall {
		e.toolCall(ctx, t)
	}
	if t.state == StateSummarize {
		e.summarize(ctx, t)
	}
	if t.state == StateError {
		// Exactly one recovery message, then terminal. Retrying belongs
		// to the caller.
		t.say(t.decision.Reason())
		t.state = StateDone
	}

	e.finalize(ctx, t)

	res := &Result{TurnID: t.id, State: t.state, Emitted: t.emitted}
	if t.desc != nil {
		res.Capability = t.desc.Name
	}
	return res
}

// think runs the decision step: catalog + history + user text in, a
// Decision out.
func (e *Engine) think(ctx context.Context, t *turnCtx) {
	msgs, err := e.sessions.Messages(ctx, t.sessionID)
	if err != nil {
		log.Printf("engine: turn %s: session history unavailable: %v", t.id, err)
	}

	req := &provider.CompletionRequest{
		Messages: append([]provider.Message{
			{Role: provider.RoleSystem, Content: e.decisionPrompt()},
		}, append(msgs, provider.Message{Role: provider.RoleUser, Content: t.input})...),
	}

	dctx, cancel := context.WithTimeout(ctx, e.timeouts.Decide)
	defer cancel()
	resp, err := e.llm.Complete(dctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.metrics.Timeout("decide")
			log.Printf("engine: turn %s: decision timed out", t.id)
			t.say(timeoutApology)
			t.state = StateDone
			return
		}
		log.Printf("engine: turn %s: decision failed: %v", t.id, err)
		t.decision = FailedDecision(fatalApology)
		t.state = StateError
		return
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		// An empty decision means the model pipeline itself is broken,
		// worth surfacing distinctly from a slow collaborator.
		log.Printf("engine: turn %s: empty decision response", t.id)
		t.decision = FailedDecision(fatalApology)
		t.state = StateError
		return
	}

	for _, d := range e.detectors {
		if name, rawArgs, ok := d.Detect(dctx, content); ok {
			t.decision = ToolCallDecision(name, rawArgs)
			t.state = StateToolCall
			return
		}
	}

	t.decision = MessageDecision(content)
	t.say(content)
	t.state = StateDone
}

// toolCall binds arguments and invokes the decided capability.
func (e *Engine) toolCall(ctx context.Context, t *turnCtx) {
	desc, ok := e.caps.Describe(t.decision.Capability())
	if !ok {
		t.decision = FailedDecision(fmt.Sprintf("Sorry, I don't know how to do %q.", t.decision.Capability()))
		t.state = StateError
		return
	}
	t.desc = desc
	t.say(confirmation(desc))
	e.metrics.ToolCall(desc.Name)

	args := e.adapter.Adapt(ctx, desc, rawInput(t.decision.RawArgs(), t.input))

	cctx, cancel := context.WithTimeout(ctx, e.timeouts.Capability)
	defer cancel()
	result, err := e.caps.Execute(cctx, desc.Name, args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.metrics.Timeout("capability")
		}
		log.Printf("engine: turn %s: %s failed: %v", t.id, desc.Name, err)
		t.decision = FailedDecision(fmt.Sprintf("Sorry, I couldn't complete that: %v", err))
		t.state = StateError
		return
	}
	t.rawResult = result
	t.state = StateSummarize
}

// summarize turns the raw result into a short report.
func (e *Engine) summarize(ctx context.Context, t *turnCtx) {
	serialized := serializeResult(t.rawResult)

	prompt := fmt.Sprintf(
		"The user asked: %q\nThe %s tool returned:\n%s\n\n%s\nWrite a short natural-language reply for the user.",
		t.input, t.desc.Name, serialized, summaryGuidance(t.desc))

	sctx, cancel := context.WithTimeout(ctx, e.timeouts.Summarize)
	defer cancel()
	resp, err := e.llm.Complete(sctx, &provider.CompletionRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: prompt}},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.metrics.Timeout("summarize")
		}
		log.Printf("engine: turn %s: summarize failed (%v), using template", t.id, err)
		t.say(fallbackSummary(t.desc))
		t.state = StateDone
		return
	}

	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		log.Printf("engine: turn %s: empty summary response", t.id)
		t.decision = FailedDecision(fatalApology)
		t.state = StateError
		return
	}
	// A summary carrying the serialized result verbatim means the model
	// echoed instead of summarizing.
	if len(serialized) > 2 && strings.Contains(summary, serialized) {
		log.Printf("engine: turn %s: summary echoed the raw result, using template", t.id)
		summary = fallbackSummary(t.desc)
	}
	t.say(summary)
	t.state = StateDone
}

// finalize records the turn under the single writer lock.
func (e *Engine) finalize(ctx context.Context, t *turnCtx) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.TurnFinished(t.state)

	capName := ""
	if t.desc != nil {
		capName = t.desc.Name
	}
	e.ring.Append(history.Turn{
		ID:         t.id,
		SessionID:  t.sessionID,
		Input:      t.input,
		Capability: capName,
		Emitted:    t.emitted,
		State:      t.state,
		StartedAt:  t.startedAt,
		FinishedAt: e.now(),
	})

	if err := e.sessions.Append(ctx, t.sessionID, provider.Message{Role: provider.RoleUser, Content: t.input}); err != nil {
		log.Printf("engine: turn %s: session append: %v", t.id, err)
	}
	if len(t.emitted) > 0 {
		reply := t.emitted[len(t.emitted)-1]
		if err := e.sessions.Append(ctx, t.sessionID, provider.Message{Role: provider.RoleAssistant, Content: reply}); err != nil {
			log.Printf("engine: turn %s: session append: %v", t.id, err)
		}
	}
}

// decisionPrompt enumerates the catalog and the invocation marker form.
func (e *Engine) decisionPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a personal assistant with access to these tools:\n")
	for _, desc := range e.caps.List() {
		fmt.Fprintf(&sb, "- %s: %s\n", desc.Name, desc.Description)
	}
	fmt.Fprintf(&sb,
		"\nIf the user's request needs a tool, respond with exactly:\n%s <tool_name> <arguments>\nOtherwise answer the user directly in plain text.", toolCallMarker)
	return sb.String()
}

// rawInput picks the adapter input: the decision's argument text when
// present (as JSON if it parses), the original user text otherwise.
func rawInput(rawArgs, userText string) adapter.RawInput {
	if rawArgs == "" {
		return adapter.Text(userText)
	}
	if strings.HasPrefix(rawArgs, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(rawArgs), &m); err == nil {
			return adapter.Keyed(m)
		}
	}
	return adapter.Text(rawArgs)
}

func serializeResult(result any) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}
