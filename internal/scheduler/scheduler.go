// Package scheduler runs registered maintenance tasks on a fixed cadence.
// Each run is guarded by a named try-lock so that, across restarts and
// replicas, at most one instance executes a given task at a time.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/alert"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
	"github.com/randomtoy/chess-academy-backend/internal/retry"
)

// Task is one registered unit of periodic work.
type Task struct {
	Name         string
	Every        time.Duration
	RunOnStartup bool
	Fn           func(ctx context.Context) error
}

// Scheduler drives tasks until its context is cancelled. Scheduled runs are
// independent of request handling; no ordering holds between the two.
type Scheduler struct {
	locker ports.Locker
	alerts *alert.Mailer
	log    *zap.Logger
	policy retry.Policy
	tasks  []Task
}

func New(locker ports.Locker, alerts *alert.Mailer, log *zap.Logger) *Scheduler {
	return &Scheduler{
		locker: locker,
		alerts: alerts,
		log:    log.Named("scheduler"),
		policy: retry.DefaultPolicy,
	}
}

// Register adds a task. Must be called before Run.
func (s *Scheduler) Register(t Task) {
	s.tasks = append(s.tasks, t)
	s.log.Info("registered task", zap.String("task", t.Name), zap.Duration("every", t.Every))
}

// Run blocks until ctx is done, ticking every task on its own cadence.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range s.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			if t.RunOnStartup {
				s.runTask(ctx, t)
			}
			ticker := time.NewTicker(t.Every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.runTask(ctx, t)
				}
			}
		}(t)
	}
	wg.Wait()
}

// runTask executes one guarded run. A held lock means another instance is
// already on it: skip, don't fail.
func (s *Scheduler) runTask(ctx context.Context, t Task) {
	release, ok, err := s.locker.TryAcquire("sched_" + t.Name)
	if err != nil {
		s.log.Error("lock acquire", zap.String("task", t.Name), zap.Error(err))
		return
	}
	if !ok {
		s.log.Debug("task already running elsewhere, skipping", zap.String("task", t.Name))
		return
	}
	defer func() {
		if err := release(); err != nil {
			s.log.Warn("lock release", zap.String("task", t.Name), zap.Error(err))
		}
	}()

	start := time.Now()
	err = retry.Do(ctx, s.policy, t.Fn)
	if err != nil {
		s.log.Error("task failed", zap.String("task", t.Name), zap.Error(err))
		s.alerts.SendErrorAlert("scheduled_task_failure", err.Error(), map[string]string{
			"task": t.Name,
		})
		return
	}
	s.log.Info("task completed", zap.String("task", t.Name), zap.Duration("took", time.Since(start)))
}
