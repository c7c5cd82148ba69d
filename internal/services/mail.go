package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

// EmailMessage is one inbox or outbox entry.
type EmailMessage struct {
	ID         string    `json:"id"`
	Recipient  string    `json:"recipient,omitempty"`
	Sender     string    `json:"sender,omitempty"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Mail is an in-process mail collaborator. Sent messages land in an
// outbox the tests and the inbox listing can observe.
type Mail struct {
	mu     sync.Mutex
	inbox  []EmailMessage
	outbox []EmailMessage
	now    func() time.Time
}

func NewMail() *Mail {
	return &Mail{now: time.Now}
}

// Seed preloads inbox messages.
func (m *Mail) Seed(msgs ...EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = append(m.inbox, msgs...)
}

// Outbox returns a copy of everything sent so far.
func (m *Mail) Outbox() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailMessage, len(m.outbox))
	copy(out, m.outbox)
	return out
}

func (m *Mail) Methods() []capability.Method {
	return []capability.Method{
		{
			Name: "send_message",
			Params: []capability.ParamSpec{
				{Name: "recipient", Type: capability.TypeString, Required: true},
				{Name: "subject", Type: capability.TypeString, Required: true},
				{Name: "body", Type: capability.TypeString, Required: true},
			},
			Invoke: m.sendMessage,
		},
		{
			Name: "get_recent_messages",
			Params: []capability.ParamSpec{
				{Name: "max_results", Type: capability.TypeInt, HasDefault: true, Default: 10},
			},
			Invoke: m.getRecentMessages,
		},
	}
}

func (m *Mail) sendMessage(_ context.Context, args capability.Args) (any, error) {
	recipient := stringArg(args, "recipient")
	if recipient == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	msg := EmailMessage{
		ID:         uuid.NewString(),
		Recipient:  recipient,
		Subject:    stringArg(args, "subject"),
		Body:       stringArg(args, "body"),
		ReceivedAt: m.now(),
	}
	m.mu.Lock()
	m.outbox = append(m.outbox, msg)
	m.mu.Unlock()
	return map[string]any{"status": "sent", "id": msg.ID, "recipient": recipient}, nil
}

func (m *Mail) getRecentMessages(_ context.Context, args capability.Args) (any, error) {
	max := intArg(args, "max_results", 10)
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.inbox
	if max > 0 && len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}
	out := make([]EmailMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}
