package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/domain/puzzle"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

const queryInsertGame = `
INSERT INTO games
    (id, white_player_id, opponent_kind, black_player_id, bot_level,
     pgn, status, started_at, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const queryGetGame = `
SELECT id, white_player_id, opponent_kind, black_player_id, bot_level,
       pgn, status, started_at, ended_at
FROM games
WHERE id = $1`

const queryUpdateGame = `
UPDATE games SET
    pgn      = $1,
    status   = $2,
    ended_at = $3
WHERE id = $4`

const queryInsertSession = `
INSERT INTO game_sessions
    (id, game_id, current_fen, move_history, last_move_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const queryCurrentSession = `
SELECT id, game_id, current_fen, move_history, last_move_at, created_at
FROM game_sessions
WHERE game_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1`

const queryUpdateSession = `
UPDATE game_sessions SET
    current_fen  = $1,
    move_history = $2,
    last_move_at = $3
WHERE id = $4`

const queryListStale = `
SELECT g.id
FROM games g
JOIN LATERAL (
    SELECT last_move_at
    FROM game_sessions
    WHERE game_id = g.id
    ORDER BY created_at DESC, id DESC
    LIMIT 1
) cur ON TRUE
WHERE g.status = 'in_progress'
  AND cur.last_move_at < $1
LIMIT $2`

const queryInsertPuzzle = `
INSERT INTO puzzles
    (id, fen, solution, difficulty, theme, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const queryGetPuzzle = `
SELECT id, fen, solution, difficulty, theme, description, created_at
FROM puzzles
WHERE id = $1`

const queryRandomPuzzle = `
SELECT id, fen, solution, difficulty, theme, description, created_at
FROM puzzles
WHERE $1::text IS NULL OR difficulty = $1
ORDER BY random()
LIMIT 1`

const queryCountPuzzles = `SELECT COUNT(*) FROM puzzles`

// queryRecordAttempt increments exactly one counter in a single statement,
// so concurrent attempts never under-count.
const queryRecordAttempt = `
INSERT INTO user_puzzle_stats
    (id, user_id, puzzle_id, solved_count, failed_count, last_attempt_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (user_id, puzzle_id) DO UPDATE SET
    solved_count    = user_puzzle_stats.solved_count + EXCLUDED.solved_count,
    failed_count    = user_puzzle_stats.failed_count + EXCLUDED.failed_count,
    last_attempt_at = EXCLUDED.last_attempt_at`

const queryUserStats = `
SELECT s.user_id, s.puzzle_id, s.solved_count, s.failed_count,
       s.best_time_seconds, s.last_attempt_at, p.difficulty
FROM user_puzzle_stats s
JOIN puzzles p ON p.id = s.puzzle_id
WHERE s.user_id = $1`

// Store is a PostgreSQL-backed GameStore and PuzzleStore.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) InsertGame(ctx context.Context, g *game.Game) error {
	_, err := s.pool.Exec(ctx, queryInsertGame,
		g.ID,
		g.WhitePlayerID,
		string(g.Opponent.Kind),
		g.Opponent.PlayerID,
		g.Opponent.BotLevel,
		g.PGN,
		string(g.Status),
		g.StartedAt,
		g.EndedAt,
	)
	return err
}

func (s *Store) GetGame(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	row := s.pool.QueryRow(ctx, queryGetGame, id)
	g, err := scanGame(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return g, err
}

func (s *Store) UpdateGame(ctx context.Context, g *game.Game) error {
	tag, err := s.pool.Exec(ctx, queryUpdateGame,
		g.PGN,
		string(g.Status),
		g.EndedAt,
		g.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) InsertSession(ctx context.Context, sess *game.Session) error {
	moves, err := json.Marshal(sess.Moves)
	if err != nil {
		return fmt.Errorf("marshal move history: %w", err)
	}
	_, err = s.pool.Exec(ctx, queryInsertSession,
		sess.ID,
		sess.GameID,
		sess.CurrentFEN,
		moves,
		sess.LastMoveAt,
		sess.CreatedAt,
	)
	return err
}

func (s *Store) CurrentSession(ctx context.Context, gameID uuid.UUID) (*game.Session, error) {
	row := s.pool.QueryRow(ctx, queryCurrentSession, gameID)
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return sess, err
}

func (s *Store) UpdateSession(ctx context.Context, sess *game.Session) error {
	moves, err := json.Marshal(sess.Moves)
	if err != nil {
		return fmt.Errorf("marshal move history: %w", err)
	}
	tag, err := s.pool.Exec(ctx, queryUpdateSession,
		sess.CurrentFEN,
		moves,
		sess.LastMoveAt,
		sess.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) ListStaleInProgress(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, queryListStale, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) InsertPuzzle(ctx context.Context, p *puzzle.Puzzle) error {
	solution, err := json.Marshal(p.Solution)
	if err != nil {
		return fmt.Errorf("marshal solution: %w", err)
	}
	_, err = s.pool.Exec(ctx, queryInsertPuzzle,
		p.ID,
		p.FEN,
		solution,
		string(p.Difficulty),
		p.Theme,
		p.Description,
		p.CreatedAt,
	)
	return err
}

func (s *Store) GetPuzzle(ctx context.Context, id uuid.UUID) (*puzzle.Puzzle, error) {
	row := s.pool.QueryRow(ctx, queryGetPuzzle, id)
	p, err := scanPuzzle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return p, err
}

func (s *Store) RandomPuzzle(ctx context.Context, difficulty *puzzle.Difficulty) (*puzzle.Puzzle, error) {
	var filter *string
	if difficulty != nil {
		d := string(*difficulty)
		filter = &d
	}
	row := s.pool.QueryRow(ctx, queryRandomPuzzle, filter)
	p, err := scanPuzzle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return p, err
}

func (s *Store) CountPuzzles(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, queryCountPuzzles).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) RecordAttempt(ctx context.Context, userID, puzzleID uuid.UUID, success bool, now time.Time) error {
	solved, failed := 0, 0
	if success {
		solved = 1
	} else {
		failed = 1
	}
	_, err := s.pool.Exec(ctx, queryRecordAttempt,
		uuid.New(), userID, puzzleID, solved, failed, now,
	)
	return err
}

func (s *Store) UserStats(ctx context.Context, userID uuid.UUID) ([]puzzle.UserStat, error) {
	rows, err := s.pool.Query(ctx, queryUserStats, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []puzzle.UserStat{}
	for rows.Next() {
		var (
			stat       puzzle.UserStat
			difficulty string
		)
		if err := rows.Scan(
			&stat.UserID, &stat.PuzzleID, &stat.Solved, &stat.Failed,
			&stat.BestTimeSeconds, &stat.LastAttemptAt, &difficulty,
		); err != nil {
			return nil, err
		}
		stat.Difficulty = puzzle.Difficulty(difficulty)
		out = append(out, stat)
	}
	return out, rows.Err()
}

// scanGame reads a game row from either a pgx.Row or pgx.Rows.
func scanGame(s interface {
	Scan(dest ...any) error
}) (*game.Game, error) {
	var (
		id            uuid.UUID
		whitePlayerID *uuid.UUID
		opponentKind  string
		blackPlayerID *uuid.UUID
		botLevel      int
		pgn           *string
		statusStr     string
		startedAt     time.Time
		endedAt       *time.Time
	)
	err := s.Scan(
		&id, &whitePlayerID, &opponentKind, &blackPlayerID, &botLevel,
		&pgn, &statusStr, &startedAt, &endedAt,
	)
	if err != nil {
		return nil, err
	}
	return &game.Game{
		ID:            id,
		WhitePlayerID: whitePlayerID,
		Opponent: game.Opponent{
			Kind:     game.OpponentKind(opponentKind),
			PlayerID: blackPlayerID,
			BotLevel: botLevel,
		},
		Status:    game.Status(statusStr),
		PGN:       pgn,
		StartedAt: startedAt,
		EndedAt:   endedAt,
	}, nil
}

func scanSession(s interface {
	Scan(dest ...any) error
}) (*game.Session, error) {
	var (
		sess  game.Session
		moves []byte
	)
	err := s.Scan(
		&sess.ID, &sess.GameID, &sess.CurrentFEN, &moves,
		&sess.LastMoveAt, &sess.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(moves, &sess.Moves); err != nil {
		// A move log that does not decode is the same class of failure as
		// an illegal logged move.
		return nil, fmt.Errorf("%w: decode move history: %v", game.ErrCorruptState, err)
	}
	if sess.Moves == nil {
		sess.Moves = []string{}
	}
	return &sess, nil
}

func scanPuzzle(s interface {
	Scan(dest ...any) error
}) (*puzzle.Puzzle, error) {
	var (
		p        puzzle.Puzzle
		solution []byte
		diff     string
	)
	err := s.Scan(
		&p.ID, &p.FEN, &solution, &diff, &p.Theme, &p.Description, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(solution, &p.Solution); err != nil {
		return nil, fmt.Errorf("%w: decode solution: %v", puzzle.ErrInvalidData, err)
	}
	p.Difficulty = puzzle.Difficulty(diff)
	return &p, nil
}
