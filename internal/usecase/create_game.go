// Package usecase contains the application services that drive game
// lifecycles, puzzle solving and background maintenance. Each usecase is an
// explicit dependency object constructed once at process start; there are
// no package-level singletons.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

// GameCreator starts new games.
type GameCreator struct {
	store ports.GameStore
	log   *zap.Logger
	now   func() time.Time
}

func NewGameCreator(store ports.GameStore, log *zap.Logger) *GameCreator {
	return &GameCreator{
		store: store,
		log:   log.Named("create_game"),
		now:   time.Now,
	}
}

// Create persists a new in-progress game and its session at the canonical
// starting position.
func (c *GameCreator) Create(ctx context.Context, whitePlayerID *uuid.UUID, opp game.Opponent) (*game.Game, *game.Session, error) {
	now := c.now().UTC()
	g, err := game.NewGame(uuid.New(), whitePlayerID, opp, now)
	if err != nil {
		return nil, nil, err
	}
	if err := c.store.InsertGame(ctx, g); err != nil {
		return nil, nil, err
	}
	sess := game.NewSession(uuid.New(), g.ID, now)
	if err := c.store.InsertSession(ctx, sess); err != nil {
		return nil, nil, err
	}
	c.log.Info("game created",
		zap.String("game_id", g.ID.String()),
		zap.String("opponent", string(g.Opponent.Kind)),
	)
	return g, sess, nil
}
