package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

const janitorBatchSize = 100

// GameJanitor marks long-idle in-progress games as abandoned. It runs as a
// scheduled task; the scheduler's lock keeps multiple instances from
// sweeping concurrently.
type GameJanitor struct {
	store        ports.GameStore
	locks        *GameLocks
	abandonAfter time.Duration
	log          *zap.Logger
	now          func() time.Time
}

func NewGameJanitor(store ports.GameStore, locks *GameLocks, abandonAfter time.Duration, log *zap.Logger) *GameJanitor {
	return &GameJanitor{
		store:        store,
		locks:        locks,
		abandonAfter: abandonAfter,
		log:          log.Named("janitor"),
		now:          time.Now,
	}
}

// AbandonStale finds in-progress games whose session has seen no move for
// the configured window and finishes each as abandoned, preserving a final
// record of the moves that were played. Per-game failures are logged and
// skipped so one bad row never stalls the sweep.
func (j *GameJanitor) AbandonStale(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.abandonAfter)
	ids, err := j.store.ListStaleInProgress(ctx, cutoff, janitorBatchSize)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	abandoned := 0
	for _, id := range ids {
		if err := j.abandonOne(ctx, id); err != nil {
			j.log.Warn("abandon failed", zap.String("game_id", id.String()), zap.Error(err))
			continue
		}
		abandoned++
	}
	j.log.Info("stale games swept",
		zap.Int("candidates", len(ids)),
		zap.Int("abandoned", abandoned),
	)
	return nil
}

func (j *GameJanitor) abandonOne(ctx context.Context, id uuid.UUID) error {
	release := j.locks.Lock(id)
	defer release()

	g, err := j.store.GetGame(ctx, id)
	if err != nil {
		return err
	}
	// A move may have landed between listing and locking.
	if g.Status.Terminal() {
		return nil
	}
	sess, err := j.store.CurrentSession(ctx, id)
	if err != nil {
		return err
	}
	cg, err := game.Replay(sess.Moves)
	if err != nil {
		return err
	}

	pgn := game.Notation(cg)
	ended := j.now().UTC()
	g.Status = game.StatusAbandoned
	g.PGN = &pgn
	g.EndedAt = &ended
	return j.store.UpdateGame(ctx, g)
}
