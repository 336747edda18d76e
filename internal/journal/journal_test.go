package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "tickloop/pkg/logx"
)

func openTestStore(t *testing.T, cfg Config) Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "firings.jsonl")
	}
	cfg.Driver = "file"
	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Errorf("Open(%q) = %v, %v; want nil, nil", driver, st, err)
		}
	}
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestFileAppendRecent(t *testing.T) {
	t.Parallel()
	st := openTestStore(t, Config{})
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := Record{At: base.Add(time.Duration(i) * time.Second), Tick: uint32(100 * i), Hook: "heartbeat", Kind: "schedule_fired"}
		if err := st.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := st.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d records, want 3", len(got))
	}
	if got[0].Tick != 400 || got[2].Tick != 200 {
		t.Errorf("unexpected order: ticks %d..%d, want newest first", got[0].Tick, got[2].Tick)
	}
}

func TestFilePrune(t *testing.T) {
	t.Parallel()
	st := openTestStore(t, Config{})
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	for i := 0; i < 4; i++ {
		if err := st.Append(ctx, Record{At: old, Hook: "stale", Kind: "schedule_fired"}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 6; i++ {
		if err := st.Append(ctx, Record{At: time.Now(), Tick: uint32(i), Hook: "fresh", Kind: "schedule_fired"}); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := st.Prune(ctx, 4, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	// 4 stale by age, then 2 fresh over the keep limit.
	if removed != 6 {
		t.Errorf("Prune removed %d, want 6", removed)
	}

	got, err := st.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("after prune: %d records, want 4", len(got))
	}
	for _, r := range got {
		if r.Hook != "fresh" {
			t.Errorf("stale record survived prune: %+v", r)
		}
	}

	// The append handle must still work after the rewrite.
	if err := st.Append(ctx, Record{At: time.Now(), Hook: "post-prune", Kind: "reaction_fired"}); err != nil {
		t.Fatalf("Append after prune: %v", err)
	}
	got, err = st.Recent(ctx, 1)
	if err != nil || len(got) != 1 || got[0].Hook != "post-prune" {
		t.Errorf("Recent after prune = %+v, %v", got, err)
	}
}

func TestRecorderDropsOverRate(t *testing.T) {
	t.Parallel()
	st := openTestStore(t, Config{})
	rec := NewRecorder(st, Config{RatePerSec: 5}, logx.Nop())

	for i := 0; i < 50; i++ {
		rec.Note(Record{At: time.Now(), Hook: "burst", Kind: "schedule_fired"})
	}
	if rec.Dropped() == 0 {
		t.Error("expected over-rate records to be dropped")
	}
}

func TestRecorderWritesThrough(t *testing.T) {
	t.Parallel()
	st := openTestStore(t, Config{})
	rec := NewRecorder(st, Config{}, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = rec.Run(ctx)
		close(done)
	}()

	rec.Note(Record{At: time.Now(), Tick: 150, Hook: "heartbeat", Kind: "schedule_fired"})

	deadline := time.After(2 * time.Second)
	for {
		got, err := st.Recent(context.Background(), 1)
		if err == nil && len(got) == 1 {
			if got[0].Hook != "heartbeat" || got[0].Tick != 150 {
				t.Errorf("unexpected record: %+v", got[0])
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("record never reached the store")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
