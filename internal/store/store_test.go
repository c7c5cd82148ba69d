package store

import (
	"context"
	"strings"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DriverSQLite, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Error("expected unknown-driver error")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(DriverSQLite, dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	db, err = Open(DriverSQLite, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = db.Close() }()
	v, err := db.currentVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v < 1 {
		t.Errorf("schema version = %d", v)
	}
}

func TestEventStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	events := NewEventStore(db)
	ctx := context.Background()

	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	id, err := events.Insert(ctx, Event{
		Summary:  "Workout",
		Location: "Gym",
		Start:    start,
		End:      start.Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty id")
	}

	got, err := events.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Summary != "Workout" || !got[0].Start.Equal(start) {
		t.Errorf("List = %+v", got)
	}

	if err := events.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := events.Delete(ctx, id); err == nil {
		t.Error("deleting a deleted event should fail")
	}
}

func TestEventStoreListBetween(t *testing.T) {
	db := openTestDB(t)
	events := NewEventStore(db)
	ctx := context.Background()

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	for _, h := range []int{-2, 9, 15, 26} {
		_, err := events.Insert(ctx, Event{
			Summary: "e",
			Start:   day.Add(time.Duration(h) * time.Hour),
			End:     day.Add(time.Duration(h+1) * time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := events.ListBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("ListBetween = %d events, want 2", len(got))
	}
}

func TestEventStoreListBetweenMixedOffsets(t *testing.T) {
	db := openTestDB(t)
	events := NewEventStore(db)
	ctx := context.Background()

	pacific := time.FixedZone("PDT", -7*3600)
	// 18:00-07:00 is 01:00Z the next day, inside the UTC window below.
	inside := time.Date(2026, 8, 24, 18, 0, 0, 0, pacific)
	outside := time.Date(2026, 8, 24, 10, 0, 0, 0, pacific) // 17:00Z, before the window
	for _, ev := range []Event{
		{Summary: "inside", Start: inside, End: inside.Add(time.Hour)},
		{Summary: "outside", Start: outside, End: outside.Add(time.Hour)},
	} {
		if _, err := events.Insert(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	from := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	got, err := events.ListBetween(ctx, from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Summary != "inside" {
		t.Errorf("ListBetween = %+v", got)
	}
	if !got[0].Start.Equal(inside) {
		t.Errorf("start = %v, want the same instant as %v", got[0].Start, inside)
	}

	all, err := events.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Summary != "outside" {
		t.Errorf("List order = %+v", all)
	}
}

func TestTaskStore(t *testing.T) {
	db := openTestDB(t)
	tasks := NewTaskStore(db)
	ctx := context.Background()

	id, err := tasks.Insert(ctx, Task{Title: "buy protein", Due: "2026-08-25T00:00:00Z"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tasks.Insert(ctx, Task{Title: "done already", Done: true}); err != nil {
		t.Fatal(err)
	}

	pending, err := tasks.List(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Title != "buy protein" {
		t.Errorf("pending = %+v", pending)
	}

	if err := tasks.Complete(ctx, id); err != nil {
		t.Fatal(err)
	}
	all, err := tasks.List(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all = %+v", all)
	}
	if err := tasks.Complete(ctx, "nope"); err == nil {
		t.Error("completing an unknown task should fail")
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	got := pg.rebind("INSERT INTO t (a, b) VALUES (?, ?)")
	if !strings.Contains(got, "$1") || !strings.Contains(got, "$2") {
		t.Errorf("rebind = %q", got)
	}
	lite := &DB{driver: DriverSQLite}
	if got := lite.rebind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}
