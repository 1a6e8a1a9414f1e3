package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/domain/puzzle"
)

// Sentinel store errors.
var (
	ErrNotFound = errors.New("not found")
)

// GameStore is the persistence interface for games and their sessions.
// Session rows are append-only in principle; only the most recently created
// row for a game is authoritative.
type GameStore interface {
	InsertGame(ctx context.Context, g *game.Game) error
	GetGame(ctx context.Context, id uuid.UUID) (*game.Game, error)
	UpdateGame(ctx context.Context, g *game.Game) error

	InsertSession(ctx context.Context, s *game.Session) error
	// CurrentSession returns the latest session for gameID, or ErrNotFound.
	CurrentSession(ctx context.Context, gameID uuid.UUID) (*game.Session, error)
	UpdateSession(ctx context.Context, s *game.Session) error

	// ListStaleInProgress returns ids of in-progress games whose current
	// session has seen no move since cutoff, capped at limit.
	ListStaleInProgress(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// PuzzleStore is the persistence interface for puzzles and per-user
// attempt counters.
type PuzzleStore interface {
	InsertPuzzle(ctx context.Context, p *puzzle.Puzzle) error
	GetPuzzle(ctx context.Context, id uuid.UUID) (*puzzle.Puzzle, error)
	// RandomPuzzle returns a random puzzle, optionally filtered by
	// difficulty. Returns ErrNotFound when nothing matches.
	RandomPuzzle(ctx context.Context, difficulty *puzzle.Difficulty) (*puzzle.Puzzle, error)
	CountPuzzles(ctx context.Context) (int, error)

	// RecordAttempt lazily creates the (user, puzzle) counter row and
	// increments exactly one of the solved/failed counters. Must be atomic
	// per row so concurrent attempts never under-count.
	RecordAttempt(ctx context.Context, userID, puzzleID uuid.UUID, success bool, now time.Time) error
	// UserStats returns every counter row for userID, each joined with the
	// puzzle's difficulty.
	UserStats(ctx context.Context, userID uuid.UUID) ([]puzzle.UserStat, error)
}

// SearchBudget bounds an engine search. Depth takes precedence when both
// are set.
type SearchBudget struct {
	Depth          int
	MoveTimeMillis int
	SkillLevel     int
}

// Analysis is an engine evaluation of a position. Forced mates are folded
// into ScoreCP at +/-30000.
type Analysis struct {
	ScoreCP   int
	Depth     int
	PV        []string
	Nodes     int64
	ElapsedMs int64
}

// Engine is the search half of the position capability. Implementations
// must honor ctx cancellation; callers bound every call with a timeout.
type Engine interface {
	// BestMove returns the engine's move in UCI notation, or "" when the
	// position has no reply (terminal position).
	BestMove(ctx context.Context, fen string, budget SearchBudget) (string, error)
	Analyze(ctx context.Context, fen string, depth int) (Analysis, error)
}

// Locker provides named, non-blocking mutual exclusion for scheduled tasks
// across process instances. A failed acquisition is "skip this run", not
// an error.
type Locker interface {
	TryAcquire(name string) (release func() error, ok bool, err error)
}
