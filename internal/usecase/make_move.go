package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
	"github.com/randomtoy/chess-academy-backend/internal/retry"
)

// EngineParams bounds every engine call made on behalf of a request: the
// search budget handed to the engine plus the caller-side timeout and retry
// policy. Policy is plain data; see the retry package.
type EngineParams struct {
	Budget  ports.SearchBudget
	Timeout time.Duration
	Retry   retry.Policy
}

// MoveResult describes the state of a game after a submitted move (and the
// bot's reply, when one was produced).
type MoveResult struct {
	FEN     string
	Status  game.Status
	BotMove *string
	Moves   []string
	PGN     *string
}

// MoveSubmitter applies a player's move to a game, evaluates termination
// after each ply, and triggers the bot reply in bot games.
type MoveSubmitter struct {
	store  ports.GameStore
	engine ports.Engine
	params EngineParams
	locks  *GameLocks
	log    *zap.Logger
	now    func() time.Time
}

func NewMoveSubmitter(store ports.GameStore, engine ports.Engine, params EngineParams, locks *GameLocks, log *zap.Logger) *MoveSubmitter {
	return &MoveSubmitter{
		store:  store,
		engine: engine,
		params: params,
		locks:  locks,
		log:    log.Named("make_move"),
		now:    time.Now,
	}
}

// Submit validates and applies uci to the game's current position.
//
// The player's ply is persisted before termination is evaluated, so the move
// is durable even if nothing else resolves. Termination is checked after
// each ply separately: the bot's reply can itself end the game. In a bot
// game the engine is consulted only when, after the player's ply, black is
// to move; an engine failure or timeout degrades to "no bot reply" and the
// player's move still succeeds.
func (m *MoveSubmitter) Submit(ctx context.Context, gameID uuid.UUID, uci string) (*MoveResult, error) {
	release := m.locks.Lock(gameID)
	defer release()

	g, err := m.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status.Terminal() {
		return nil, game.ErrGameNotInProgress
	}
	sess, err := m.store.CurrentSession(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if err := m.applyPly(ctx, g, sess, uci); err != nil {
		return nil, err
	}

	var botMove *string
	if !g.Status.Terminal() && g.Opponent.Kind == game.OpponentBot {
		black, err := game.BlackToMove(sess.CurrentFEN)
		if err != nil {
			return nil, err
		}
		if black {
			if reply := m.requestBotMove(ctx, sess.CurrentFEN, g.Opponent.BotLevel); reply != "" {
				if err := m.applyPly(ctx, g, sess, reply); err != nil {
					// The engine answered with a move the rules reject.
					// Treat it like a timeout: keep the player's ply.
					m.log.Warn("discarding unplayable engine reply",
						zap.String("game_id", gameID.String()),
						zap.String("move", reply),
						zap.Error(err),
					)
				} else {
					botMove = &reply
				}
			}
		}
	}

	return &MoveResult{
		FEN:     sess.CurrentFEN,
		Status:  g.Status,
		BotMove: botMove,
		Moves:   sess.Moves,
		PGN:     g.PGN,
	}, nil
}

// applyPly applies one move, persists the session, then evaluates terminal
// conditions on the resulting position and finalizes the game record when
// the ply ended it.
func (m *MoveSubmitter) applyPly(ctx context.Context, g *game.Game, sess *game.Session, uci string) error {
	newFEN, err := game.ApplyMove(sess.CurrentFEN, uci)
	if err != nil {
		return err
	}
	sess.CurrentFEN = newFEN
	sess.Moves = append(sess.Moves, uci)
	sess.LastMoveAt = m.now().UTC()
	if err := m.store.UpdateSession(ctx, sess); err != nil {
		return err
	}

	cg, err := game.Replay(sess.Moves)
	if err != nil {
		return err
	}
	status, over := game.EvaluateOutcome(cg)
	if !over {
		return nil
	}
	pgn := game.Notation(cg)
	ended := m.now().UTC()
	g.Status = status
	g.PGN = &pgn
	g.EndedAt = &ended
	if err := m.store.UpdateGame(ctx, g); err != nil {
		return err
	}
	m.log.Info("game over",
		zap.String("game_id", g.ID.String()),
		zap.String("status", string(status)),
	)
	return nil
}

// requestBotMove asks the engine for a reply, bounded by the configured
// timeout and retry policy. Any terminal failure is logged and swallowed;
// the returned empty string means "no reply".
func (m *MoveSubmitter) requestBotMove(ctx context.Context, fen string, level int) string {
	budget := m.params.Budget
	if level > 0 {
		budget.SkillLevel = level
	}

	var move string
	err := retry.Do(ctx, m.params.Retry, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, m.params.Timeout)
		defer cancel()
		reply, err := m.engine.BestMove(callCtx, fen, budget)
		if err != nil {
			return err
		}
		move = reply
		return nil
	})
	if err != nil {
		m.log.Warn("engine reply unavailable, continuing without bot move", zap.Error(err))
		return ""
	}
	return move
}
