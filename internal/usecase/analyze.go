package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/ports"
	"github.com/randomtoy/chess-academy-backend/internal/retry"
)

var (
	// ErrEngineUnavailable means the engine failed or timed out for a
	// request whose whole point is the engine's answer. Unlike the bot
	// reply during a move, analysis has nothing to degrade to.
	ErrEngineUnavailable = errors.New("engine_unavailable")
	// ErrNoMoveAvailable means the position is terminal: there is no move
	// to suggest.
	ErrNoMoveAvailable = errors.New("no_move_available")
)

// Suggestion is the engine's recommended move plus its evaluation.
type Suggestion struct {
	Move     string
	Analysis ports.Analysis
}

// Analyzer evaluates the current position of a game with the engine.
type Analyzer struct {
	store  ports.GameStore
	engine ports.Engine
	params EngineParams
	log    *zap.Logger
}

func NewAnalyzer(store ports.GameStore, engine ports.Engine, params EngineParams, log *zap.Logger) *Analyzer {
	return &Analyzer{
		store:  store,
		engine: engine,
		params: params,
		log:    log.Named("analyze"),
	}
}

// Analyze evaluates the game's current position to depth plies. A depth of
// zero or less uses the configured default.
func (a *Analyzer) Analyze(ctx context.Context, gameID uuid.UUID, depth int) (ports.Analysis, error) {
	sess, err := a.store.CurrentSession(ctx, gameID)
	if err != nil {
		return ports.Analysis{}, err
	}
	if depth <= 0 {
		depth = a.params.Budget.Depth
	}

	var analysis ports.Analysis
	err = retry.Do(ctx, a.params.Retry, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, a.params.Timeout)
		defer cancel()
		res, err := a.engine.Analyze(callCtx, sess.CurrentFEN, depth)
		if err != nil {
			return err
		}
		analysis = res
		return nil
	})
	if err != nil {
		a.log.Warn("analysis failed", zap.String("game_id", gameID.String()), zap.Error(err))
		return ports.Analysis{}, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return analysis, nil
}

// Suggest asks the engine for the best move in the game's current position
// and pairs it with an evaluation.
func (a *Analyzer) Suggest(ctx context.Context, gameID uuid.UUID) (*Suggestion, error) {
	sess, err := a.store.CurrentSession(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var move string
	err = retry.Do(ctx, a.params.Retry, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, a.params.Timeout)
		defer cancel()
		res, err := a.engine.BestMove(callCtx, sess.CurrentFEN, a.params.Budget)
		if err != nil {
			return err
		}
		move = res
		return nil
	})
	if err != nil {
		a.log.Warn("suggestion failed", zap.String("game_id", gameID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if move == "" {
		return nil, ErrNoMoveAvailable
	}

	analysis, err := a.Analyze(ctx, gameID, a.params.Budget.Depth)
	if err != nil {
		// The move stands on its own; evaluation is best-effort.
		analysis = ports.Analysis{PV: []string{move}}
	}
	return &Suggestion{Move: move, Analysis: analysis}, nil
}
