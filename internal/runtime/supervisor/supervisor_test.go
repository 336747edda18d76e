package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	logx "tickloop/pkg/logx"
)

func TestCleanExit(t *testing.T) {
	t.Parallel()

	s := New(context.Background(), WithLogger(logx.Nop()))
	s.Go("worker", func(ctx context.Context) error { return nil })
	s.Wait()
	if err := s.Err(); err != nil {
		t.Errorf("Err = %v, want nil", err)
	}
	if s.Active() != 0 {
		t.Errorf("Active = %d, want 0", s.Active())
	}
}

func TestCanceledIsClean(t *testing.T) {
	t.Parallel()

	s := New(context.Background(), WithLogger(logx.Nop()))
	s.Go("blocker", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !s.Stop(time.Second) {
		t.Fatal("Stop timed out")
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err = %v, want nil", err)
	}
}

func TestFirstErrorWins(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	s := New(context.Background(), WithLogger(logx.Nop()), WithCancelOnError(true))
	s.Go("failing", func(ctx context.Context) error { return boom })
	s.Go("sibling", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.Wait()
	if err := s.Err(); !errors.Is(err, boom) {
		t.Errorf("Err = %v, want wrapped %v", err, boom)
	}
}

func TestPanicBecomesError(t *testing.T) {
	t.Parallel()

	s := New(context.Background(), WithLogger(logx.Nop()), WithCancelOnError(true))
	s.Go("panicking", func(ctx context.Context) error { panic("kaput") })
	s.Wait()
	err := s.Err()
	if err == nil {
		t.Fatal("expected panic to surface as error")
	}
	if got := err.Error(); got != "panic in panicking: kaput" {
		t.Errorf("Err = %q", got)
	}
	select {
	case <-s.Context().Done():
	default:
		t.Error("panic did not cancel the supervisor context")
	}
}

func TestGo0(t *testing.T) {
	t.Parallel()

	s := New(context.Background(), WithLogger(logx.Nop()))
	done := make(chan struct{})
	s.Go0("simple", func(ctx context.Context) { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Go0 function never ran")
	}
	s.Wait()
}
