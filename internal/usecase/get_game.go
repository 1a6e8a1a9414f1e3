package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

// GameGetter reads a game together with its current session.
type GameGetter struct {
	store ports.GameStore
}

func NewGameGetter(store ports.GameStore) *GameGetter {
	return &GameGetter{store: store}
}

func (g *GameGetter) Get(ctx context.Context, gameID uuid.UUID) (*game.Game, *game.Session, error) {
	gm, err := g.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	sess, err := g.store.CurrentSession(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	return gm, sess, nil
}
