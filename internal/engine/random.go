package engine

import (
	"context"
	"math/rand"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

// Random plays a uniformly random legal move. It stands in for a real
// engine when no binary is configured, keeping bot games playable in
// development and tests.
type Random struct{}

func NewRandom() Random { return Random{} }

func (Random) BestMove(_ context.Context, fen string, _ ports.SearchBudget) (string, error) {
	moves, err := game.LegalMoves(fen)
	if err != nil {
		return "", err
	}
	if len(moves) == 0 {
		return "", nil
	}
	return moves[rand.Intn(len(moves))], nil
}

// Analyze reports a null evaluation; the random mover has no search.
func (Random) Analyze(_ context.Context, fen string, depth int) (ports.Analysis, error) {
	moves, err := game.LegalMoves(fen)
	if err != nil {
		return ports.Analysis{}, err
	}
	a := ports.Analysis{Depth: depth}
	if len(moves) > 0 {
		a.PV = moves[:1]
	}
	return a, nil
}
