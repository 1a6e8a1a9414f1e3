package memory

import (
	"context"
	"sync"

	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

// ScriptedEngine replays a fixed sequence of best moves and a canned
// analysis. It implements ports.Engine for deterministic tests.
type ScriptedEngine struct {
	mu       sync.Mutex
	Moves    []string
	Err      error
	Analysis ports.Analysis

	next int
}

func (e *ScriptedEngine) BestMove(_ context.Context, _ string, _ ports.SearchBudget) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return "", e.Err
	}
	if e.next >= len(e.Moves) {
		return "", nil
	}
	mv := e.Moves[e.next]
	e.next++
	return mv, nil
}

func (e *ScriptedEngine) Analyze(_ context.Context, _ string, _ int) (ports.Analysis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return ports.Analysis{}, e.Err
	}
	return e.Analysis, nil
}
