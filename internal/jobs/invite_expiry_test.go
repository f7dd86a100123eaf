package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeExpirer struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeExpirer) ExpireStartedInvites(context.Context) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestInviteExpiry_RunOnce_ReturnsCount(t *testing.T) {
	t.Parallel()
	fake := &fakeExpirer{n: 3}

	n, err := NewInviteExpiry(fake, time.Minute).RunOnce(context.Background())
	if err != nil || n != 3 {
		t.Errorf("expected 3, nil; got %d, %v", n, err)
	}
}

func TestInviteExpiry_RunOnce_PropagatesError(t *testing.T) {
	t.Parallel()
	fake := &fakeExpirer{err: errors.New("db down")}

	if _, err := NewInviteExpiry(fake, time.Minute).RunOnce(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestInviteExpiry_DefaultInterval(t *testing.T) {
	t.Parallel()

	if got := NewInviteExpiry(&fakeExpirer{}, 0).interval; got != 5*time.Minute {
		t.Errorf("expected 5m default, got %s", got)
	}
}

func TestInviteExpiry_StartRunsImmediatelyAndStops(t *testing.T) {
	t.Parallel()
	fake := &fakeExpirer{}
	job := NewInviteExpiry(fake, time.Hour)

	if err := job.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := job.Start(); err != nil {
		t.Fatalf("second Start should be a no-op, got %v", err)
	}
	if !job.IsRunning() {
		t.Error("expected job to be running")
	}

	deadline := time.Now().Add(3 * time.Second)
	for fake.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fake.calls.Load() == 0 {
		t.Error("expected an immediate first run")
	}

	job.Stop()
	job.Stop()
	if job.IsRunning() {
		t.Error("expected job to be stopped")
	}
}
