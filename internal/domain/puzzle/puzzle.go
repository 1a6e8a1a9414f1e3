package puzzle

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"
)

// Difficulty classifies how hard a puzzle is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// ParseDifficulty validates a difficulty string.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, true
	case DifficultyMedium:
		return DifficultyMedium, true
	case DifficultyHard:
		return DifficultyHard, true
	case DifficultyExpert:
		return DifficultyExpert, true
	default:
		return "", false
	}
}

// ErrInvalidData signals a corrupt persisted puzzle: empty or unparseable
// solution sequence, or a starting position that fails to parse. Solutions
// are immutable after creation, so this indicates bad seed data, not a race.
var ErrInvalidData = errors.New("invalid_puzzle_data")

// Puzzle is an immutable tactics exercise: a starting position and the one
// correct move sequence that solves it.
type Puzzle struct {
	ID          uuid.UUID
	FEN         string
	Solution    []string
	Difficulty  Difficulty
	Theme       *string
	Description *string
	CreatedAt   time.Time
}

// Progress replays the caller's move history for this solving attempt
// against the solution and returns the progress pointer: the length of the
// longest played prefix that matches the solution move-for-move and replays
// legally from the puzzle position. The pointer is re-derived on every
// attempt instead of being stored, which keeps it self-correcting at the
// cost of an O(solution) replay.
func (p *Puzzle) Progress(played []string) (int, error) {
	if len(p.Solution) == 0 {
		return 0, ErrInvalidData
	}
	fenOpt, err := chess.FEN(p.FEN)
	if err != nil {
		return 0, ErrInvalidData
	}
	cg := chess.NewGame(fenOpt, chess.UseNotation(chess.UCINotation{}))
	idx := 0
	for _, uci := range played {
		if idx >= len(p.Solution) || uci != p.Solution[idx] {
			break
		}
		if err := cg.MoveStr(uci); err != nil {
			break
		}
		idx++
	}
	return idx, nil
}

// UserStat is one (user, puzzle) counter row, joined with the puzzle's
// difficulty for aggregation.
type UserStat struct {
	UserID          uuid.UUID
	PuzzleID        uuid.UUID
	Solved          int
	Failed          int
	BestTimeSeconds *float64
	LastAttemptAt   *time.Time
	Difficulty      Difficulty
}

// DifficultyTotals is the per-difficulty slice of a user's counters.
type DifficultyTotals struct {
	Solved int `json:"solved"`
	Failed int `json:"failed"`
}

// Stats is a user's aggregated puzzle record.
type Stats struct {
	UserID          uuid.UUID
	TotalSolved     int
	TotalFailed     int
	SuccessRate     float64
	BestTimeSeconds *float64
	ByDifficulty    map[Difficulty]DifficultyTotals
}

// AggregateStats folds per-puzzle counter rows into user totals. Success
// rate is solved/(solved+failed) as a percentage rounded to two decimals,
// 0.0 with no attempts; best time is the minimum recorded across rows.
func AggregateStats(userID uuid.UUID, rows []UserStat) Stats {
	stats := Stats{
		UserID:       userID,
		ByDifficulty: make(map[Difficulty]DifficultyTotals),
	}
	for _, r := range rows {
		stats.TotalSolved += r.Solved
		stats.TotalFailed += r.Failed
		if r.BestTimeSeconds != nil {
			if stats.BestTimeSeconds == nil || *r.BestTimeSeconds < *stats.BestTimeSeconds {
				t := *r.BestTimeSeconds
				stats.BestTimeSeconds = &t
			}
		}
		totals := stats.ByDifficulty[r.Difficulty]
		totals.Solved += r.Solved
		totals.Failed += r.Failed
		stats.ByDifficulty[r.Difficulty] = totals
	}
	if attempts := stats.TotalSolved + stats.TotalFailed; attempts > 0 {
		rate := float64(stats.TotalSolved) / float64(attempts) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}
	return stats
}
