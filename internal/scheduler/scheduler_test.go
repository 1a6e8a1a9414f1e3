package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/alert"
	"github.com/randomtoy/chess-academy-backend/internal/lock"
	"github.com/randomtoy/chess-academy-backend/internal/scheduler"
)

func newScheduler() *scheduler.Scheduler {
	log := zap.NewNop()
	mailer := alert.NewMailer(alert.Config{}, log)
	return scheduler.New(lock.NewMemoryLocker(), mailer, log)
}

func TestRun_TicksTask(t *testing.T) {
	s := newScheduler()

	var runs atomic.Int64
	s.Register(scheduler.Task{
		Name:         "counter",
		Every:        10 * time.Millisecond,
		RunOnStartup: true,
		Fn: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if got := runs.Load(); got < 2 {
		t.Fatalf("want at least startup run plus one tick, got %d", got)
	}
}

func TestRun_SkipsWhenLockHeld(t *testing.T) {
	locker := lock.NewMemoryLocker()
	log := zap.NewNop()
	s := scheduler.New(locker, alert.NewMailer(alert.Config{}, log), log)

	// Hold the task's lock for the whole run; every tick must skip.
	release, ok, err := locker.TryAcquire("sched_blocked")
	if err != nil || !ok {
		t.Fatalf("pre-acquire: ok=%v err=%v", ok, err)
	}
	defer release()

	var runs atomic.Int64
	s.Register(scheduler.Task{
		Name:         "blocked",
		Every:        10 * time.Millisecond,
		RunOnStartup: true,
		Fn: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if got := runs.Load(); got != 0 {
		t.Fatalf("held lock must skip every run, got %d", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := newScheduler()

	s.Register(scheduler.Task{
		Name:  "idle",
		Every: time.Hour,
		Fn:    func(context.Context) error { return nil },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
