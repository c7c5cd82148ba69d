package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/adjutant-ai/adjutant/internal/provider"
)

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing(3)
	for i := 1; i <= 5; i++ {
		r.Append(Turn{ID: fmt.Sprintf("t%d", i)})
	}
	got := r.Snapshot()
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for i, want := range []string{"t3", "t4", "t5"} {
		if got[i].ID != want {
			t.Errorf("turn[%d] = %s, want %s", i, got[i].ID, want)
		}
	}
	if r.Len() != 3 {
		t.Errorf("Len = %d", r.Len())
	}
}

func TestRingPartialFill(t *testing.T) {
	r := NewRing(10)
	r.Append(Turn{ID: "a"})
	r.Append(Turn{ID: "b"})
	got := r.Snapshot()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestMemorySessionStoreTrims(t *testing.T) {
	s := NewMemorySessionStore(2)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		err := s.Append(ctx, "sess", provider.Message{Role: provider.RoleUser, Content: fmt.Sprintf("m%d", i)})
		if err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := s.Messages(ctx, "sess")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Content != "m2" || msgs[1].Content != "m3" {
		t.Errorf("messages = %+v", msgs)
	}

	if err := s.Clear(ctx, "sess"); err != nil {
		t.Fatal(err)
	}
	msgs, _ = s.Messages(ctx, "sess")
	if len(msgs) != 0 {
		t.Errorf("after clear = %+v", msgs)
	}
}

func TestRedisSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedisSessionStore(ctx, mr.Addr(), "", 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	for i := 1; i <= 3; i++ {
		err := s.Append(ctx, "sess", provider.Message{Role: provider.RoleAssistant, Content: fmt.Sprintf("m%d", i)})
		if err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := s.Messages(ctx, "sess")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Content != "m2" {
		t.Errorf("messages = %+v", msgs)
	}
	if msgs[1].Role != provider.RoleAssistant {
		t.Errorf("role = %s", msgs[1].Role)
	}

	if err := s.Clear(ctx, "sess"); err != nil {
		t.Fatal(err)
	}
	msgs, _ = s.Messages(ctx, "sess")
	if len(msgs) != 0 {
		t.Errorf("after clear = %+v", msgs)
	}
}
