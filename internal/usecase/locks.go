package usecase

import (
	"sync"

	"github.com/google/uuid"
)

// GameLocks serializes state-mutating operations per game. Every mutation of
// a game's session goes through the same GameLocks instance, so two
// concurrent moves (or a move racing an undo) on one game are ordered while
// different games proceed in parallel.
type GameLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

func NewGameLocks() *GameLocks {
	return &GameLocks{locks: make(map[uuid.UUID]*gameLock)}
}

// Lock acquires the lock for gameID and returns its release function.
// Entries are reference-counted and removed on final release so the map does
// not grow with every game ever touched.
func (g *GameLocks) Lock(gameID uuid.UUID) (release func()) {
	g.mu.Lock()
	l, ok := g.locks[gameID]
	if !ok {
		l = &gameLock{}
		g.locks[gameID] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, gameID)
		}
		g.mu.Unlock()
	}
}
