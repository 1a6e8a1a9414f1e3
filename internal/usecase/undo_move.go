package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

// UndoResult describes a game after moves were taken back.
type UndoResult struct {
	FEN    string
	Status game.Status
	Moves  []string
}

// Undoer takes back the last N plies of a game by replaying the truncated
// move log from the canonical starting position. Moves are never "reversed"
// in place: captures, promotions, castling rights and en-passant state make
// chess moves non-invertible.
type Undoer struct {
	store ports.GameStore
	locks *GameLocks
	log   *zap.Logger
	now   func() time.Time
}

func NewUndoer(store ports.GameStore, locks *GameLocks, log *zap.Logger) *Undoer {
	return &Undoer{
		store: store,
		locks: locks,
		log:   log.Named("undo_move"),
		now:   time.Now,
	}
}

// Undo removes the last count moves. Undoing from a terminal game always
// resets it to in-progress and clears the final record and end timestamp.
func (u *Undoer) Undo(ctx context.Context, gameID uuid.UUID, count int) (*UndoResult, error) {
	release := u.locks.Lock(gameID)
	defer release()

	g, err := u.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	sess, err := u.store.CurrentSession(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if count < 1 || count > len(sess.Moves) {
		return nil, game.ErrNotEnoughMoves
	}

	remaining := append([]string(nil), sess.Moves[:len(sess.Moves)-count]...)
	cg, err := game.Replay(remaining)
	if err != nil {
		return nil, err
	}

	sess.Moves = remaining
	sess.CurrentFEN = game.FENOf(cg)
	sess.LastMoveAt = u.now().UTC()
	if err := u.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	if g.Status.Terminal() {
		g.Status = game.StatusInProgress
		g.PGN = nil
		g.EndedAt = nil
		if err := u.store.UpdateGame(ctx, g); err != nil {
			return nil, err
		}
		u.log.Info("terminal game reopened by undo", zap.String("game_id", gameID.String()))
	}

	return &UndoResult{
		FEN:    sess.CurrentFEN,
		Status: g.Status,
		Moves:  sess.Moves,
	}, nil
}
