package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/domain/puzzle"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

// PuzzleGetter reads puzzles.
type PuzzleGetter struct {
	store ports.PuzzleStore
}

func NewPuzzleGetter(store ports.PuzzleStore) *PuzzleGetter {
	return &PuzzleGetter{store: store}
}

func (p *PuzzleGetter) Get(ctx context.Context, id uuid.UUID) (*puzzle.Puzzle, error) {
	return p.store.GetPuzzle(ctx, id)
}

// Random picks a random puzzle, optionally restricted to one difficulty.
func (p *PuzzleGetter) Random(ctx context.Context, difficulty *puzzle.Difficulty) (*puzzle.Puzzle, error) {
	return p.store.RandomPuzzle(ctx, difficulty)
}

// AttemptResult reports how one submitted move fared against the puzzle's
// solution.
type AttemptResult struct {
	Correct  bool
	Message  string
	NextMove *string
	Complete bool
}

// PuzzleSolver checks submitted moves against puzzle solutions and keeps
// per-user counters.
type PuzzleSolver struct {
	store ports.PuzzleStore
	log   *zap.Logger
	now   func() time.Time
}

func NewPuzzleSolver(store ports.PuzzleStore, log *zap.Logger) *PuzzleSolver {
	return &PuzzleSolver{
		store: store,
		log:   log.Named("puzzles"),
		now:   time.Now,
	}
}

// Attempt compares uci against the next expected solution move. The
// progress pointer is re-derived from played (the moves already made in this
// solving attempt) on every call; nothing about the attempt itself is
// persisted — puzzles have no session. The solution is trusted as ground
// truth, so the comparison is plain string equality on coordinate notation,
// not an independent legality check. A counter row is recorded only when a
// user identity was supplied.
func (s *PuzzleSolver) Attempt(ctx context.Context, puzzleID uuid.UUID, userID *uuid.UUID, played []string, uci string) (*AttemptResult, error) {
	p, err := s.store.GetPuzzle(ctx, puzzleID)
	if err != nil {
		return nil, err
	}
	progress, err := p.Progress(played)
	if err != nil {
		return nil, err
	}
	if progress >= len(p.Solution) {
		return &AttemptResult{Message: "puzzle already solved", Complete: true}, nil
	}

	if !game.ValidUCI(uci) {
		return nil, game.ErrInvalidUCI
	}

	if uci != p.Solution[progress] {
		s.record(ctx, userID, puzzleID, false)
		return &AttemptResult{Message: "incorrect move, try again"}, nil
	}

	progress++
	complete := progress >= len(p.Solution)
	res := &AttemptResult{
		Correct:  true,
		Message:  "correct move",
		Complete: complete,
	}
	if !complete {
		next := p.Solution[progress]
		res.NextMove = &next
	}
	s.record(ctx, userID, puzzleID, true)
	return res, nil
}

func (s *PuzzleSolver) record(ctx context.Context, userID *uuid.UUID, puzzleID uuid.UUID, success bool) {
	if userID == nil {
		return
	}
	if err := s.store.RecordAttempt(ctx, *userID, puzzleID, success, s.now().UTC()); err != nil {
		// Stat counters are best effort; the attempt verdict already stands.
		s.log.Warn("record attempt failed",
			zap.String("user_id", userID.String()),
			zap.String("puzzle_id", puzzleID.String()),
			zap.Error(err),
		)
	}
}

// StatsReader aggregates a user's per-puzzle counters.
type StatsReader struct {
	store ports.PuzzleStore
}

func NewStatsReader(store ports.PuzzleStore) *StatsReader {
	return &StatsReader{store: store}
}

func (r *StatsReader) GetUserStats(ctx context.Context, userID uuid.UUID) (puzzle.Stats, error) {
	rows, err := r.store.UserStats(ctx, userID)
	if err != nil {
		return puzzle.Stats{}, err
	}
	return puzzle.AggregateStats(userID, rows), nil
}
