package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/domain/puzzle"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

// Store is a thread-safe in-memory GameStore and PuzzleStore, mirroring the
// postgres adapter for handler and usecase tests and for running without a
// database.
type Store struct {
	mu sync.Mutex

	games map[uuid.UUID]*game.Game

	// sessions: gameID -> session rows in creation order; the last row is
	// the authoritative current session.
	sessions map[uuid.UUID][]*game.Session

	puzzles map[uuid.UUID]*puzzle.Puzzle

	// stats: userID -> puzzleID -> counter row
	stats map[uuid.UUID]map[uuid.UUID]*puzzle.UserStat
}

func New() *Store {
	return &Store{
		games:    make(map[uuid.UUID]*game.Game),
		sessions: make(map[uuid.UUID][]*game.Session),
		puzzles:  make(map[uuid.UUID]*puzzle.Puzzle),
		stats:    make(map[uuid.UUID]map[uuid.UUID]*puzzle.UserStat),
	}
}

func (s *Store) InsertGame(_ context.Context, g *game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.games[g.ID] = &cp
	return nil
}

func (s *Store) GetGame(_ context.Context, id uuid.UUID) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *Store) UpdateGame(_ context.Context, g *game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; !ok {
		return ports.ErrNotFound
	}
	cp := *g
	s.games[g.ID] = &cp
	return nil
}

func (s *Store) InsertSession(_ context.Context, sess *game.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.GameID] = append(s.sessions[sess.GameID], copySession(sess))
	return nil
}

func (s *Store) CurrentSession(_ context.Context, gameID uuid.UUID) (*game.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.sessions[gameID]
	if len(rows) == 0 {
		return nil, ports.ErrNotFound
	}
	return copySession(rows[len(rows)-1]), nil
}

func (s *Store) UpdateSession(_ context.Context, sess *game.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.sessions[sess.GameID]
	for i, row := range rows {
		if row.ID == sess.ID {
			rows[i] = copySession(sess)
			return nil
		}
	}
	return ports.ErrNotFound
}

func (s *Store) ListStaleInProgress(_ context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for id, g := range s.games {
		if g.Status != game.StatusInProgress {
			continue
		}
		rows := s.sessions[id]
		if len(rows) == 0 {
			continue
		}
		if rows[len(rows)-1].LastMoveAt.Before(cutoff) {
			out = append(out, id)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) InsertPuzzle(_ context.Context, p *puzzle.Puzzle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.Solution = append([]string(nil), p.Solution...)
	s.puzzles[p.ID] = &cp
	return nil
}

func (s *Store) GetPuzzle(_ context.Context, id uuid.UUID) (*puzzle.Puzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.puzzles[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *p
	cp.Solution = append([]string(nil), p.Solution...)
	return &cp, nil
}

func (s *Store) RandomPuzzle(_ context.Context, difficulty *puzzle.Difficulty) (*puzzle.Puzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []*puzzle.Puzzle
	for _, p := range s.puzzles {
		if difficulty == nil || p.Difficulty == *difficulty {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, ports.ErrNotFound
	}
	p := candidates[rand.Intn(len(candidates))]
	cp := *p
	cp.Solution = append([]string(nil), p.Solution...)
	return &cp, nil
}

func (s *Store) CountPuzzles(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puzzles), nil
}

func (s *Store) RecordAttempt(_ context.Context, userID, puzzleID uuid.UUID, success bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats[userID] == nil {
		s.stats[userID] = make(map[uuid.UUID]*puzzle.UserStat)
	}
	row, ok := s.stats[userID][puzzleID]
	if !ok {
		row = &puzzle.UserStat{UserID: userID, PuzzleID: puzzleID}
		s.stats[userID][puzzleID] = row
	}
	if success {
		row.Solved++
	} else {
		row.Failed++
	}
	at := now
	row.LastAttemptAt = &at
	return nil
}

func (s *Store) UserStats(_ context.Context, userID uuid.UUID) ([]puzzle.UserStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []puzzle.UserStat{}
	for puzzleID, row := range s.stats[userID] {
		cp := *row
		if p, ok := s.puzzles[puzzleID]; ok {
			cp.Difficulty = p.Difficulty
		}
		out = append(out, cp)
	}
	return out, nil
}

func copySession(sess *game.Session) *game.Session {
	cp := *sess
	cp.Moves = append([]string(nil), sess.Moves...)
	return &cp
}
