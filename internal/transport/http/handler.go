package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/domain/puzzle"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
	"github.com/randomtoy/chess-academy-backend/internal/usecase"
)

const maxUndoCount = 10

// opponentJSON is the wire representation of the opponent variant: a human
// opponent carries player_id, a bot opponent carries bot_level.
type opponentJSON struct {
	Kind     string  `json:"kind"`
	PlayerID *string `json:"player_id,omitempty"`
	BotLevel *int    `json:"bot_level,omitempty"`
}

// gameJSON is the wire representation of a game plus its current session.
type gameJSON struct {
	GameID        string       `json:"game_id"`
	WhitePlayerID *string      `json:"white_player_id"`
	Opponent      opponentJSON `json:"opponent"`
	Status        string       `json:"status"`
	PGN           *string      `json:"pgn"`
	FEN           string       `json:"fen"`
	Moves         []string     `json:"moves"`
	StartedAt     time.Time    `json:"started_at"`
	EndedAt       *time.Time   `json:"ended_at"`
	LastMoveAt    time.Time    `json:"last_move_at"`
}

type puzzleJSON struct {
	PuzzleID    string    `json:"puzzle_id"`
	FEN         string    `json:"fen"`
	Difficulty  string    `json:"difficulty"`
	Theme       *string   `json:"theme"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type analysisJSON struct {
	ScoreCP   int      `json:"score_cp"`
	Depth     int      `json:"depth"`
	PV        []string `json:"pv"`
	Nodes     int64    `json:"nodes"`
	TimeMs    int64    `json:"time_ms"`
}

func toOpponentJSON(o game.Opponent) opponentJSON {
	out := opponentJSON{Kind: string(o.Kind)}
	if o.PlayerID != nil {
		s := o.PlayerID.String()
		out.PlayerID = &s
	}
	if o.Kind == game.OpponentBot {
		lvl := o.BotLevel
		out.BotLevel = &lvl
	}
	return out
}

func toGameJSON(g *game.Game, sess *game.Session) *gameJSON {
	var white *string
	if g.WhitePlayerID != nil {
		s := g.WhitePlayerID.String()
		white = &s
	}
	return &gameJSON{
		GameID:        g.ID.String(),
		WhitePlayerID: white,
		Opponent:      toOpponentJSON(g.Opponent),
		Status:        string(g.Status),
		PGN:           g.PGN,
		FEN:           sess.CurrentFEN,
		Moves:         sess.Moves,
		StartedAt:     g.StartedAt,
		EndedAt:       g.EndedAt,
		LastMoveAt:    sess.LastMoveAt,
	}
}

func toPuzzleJSON(p *puzzle.Puzzle) *puzzleJSON {
	// The solution is never exposed; a puzzle with its answer attached is
	// not a puzzle.
	return &puzzleJSON{
		PuzzleID:    p.ID.String(),
		FEN:         p.FEN,
		Difficulty:  string(p.Difficulty),
		Theme:       p.Theme,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func toAnalysisJSON(a ports.Analysis) analysisJSON {
	pv := a.PV
	if pv == nil {
		pv = []string{}
	}
	return analysisJSON{
		ScoreCP: a.ScoreCP,
		Depth:   a.Depth,
		PV:      pv,
		Nodes:   a.Nodes,
		TimeMs:  a.ElapsedMs,
	}
}

// parseUUIDParam reads a path parameter as a UUID; a malformed id is
// indistinguishable from an unknown one.
func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, ports.ErrNotFound
	}
	return id, nil
}

// Handlers holds all usecase dependencies.
type Handlers struct {
	creator   *usecase.GameCreator
	getter    *usecase.GameGetter
	submitter *usecase.MoveSubmitter
	undoer    *usecase.Undoer
	analyzer  *usecase.Analyzer
	puzzles   *usecase.PuzzleGetter
	solver    *usecase.PuzzleSolver
	stats     *usecase.StatsReader
}

func NewHandlers(
	creator *usecase.GameCreator,
	getter *usecase.GameGetter,
	submitter *usecase.MoveSubmitter,
	undoer *usecase.Undoer,
	analyzer *usecase.Analyzer,
	puzzles *usecase.PuzzleGetter,
	solver *usecase.PuzzleSolver,
	stats *usecase.StatsReader,
) *Handlers {
	return &Handlers{
		creator:   creator,
		getter:    getter,
		submitter: submitter,
		undoer:    undoer,
		analyzer:  analyzer,
		puzzles:   puzzles,
		solver:    solver,
		stats:     stats,
	}
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleCreateGame(c echo.Context) error {
	var body struct {
		WhitePlayerID *string `json:"white_player_id"`
		Opponent      struct {
			Kind     string  `json:"kind"`
			PlayerID *string `json:"player_id"`
			BotLevel *int    `json:"bot_level"`
		} `json:"opponent"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}

	var white *uuid.UUID
	if body.WhitePlayerID != nil {
		id, err := uuid.Parse(*body.WhitePlayerID)
		if err != nil {
			return writeErr(c, game.ErrMissingOpponent)
		}
		white = &id
	}

	var opp game.Opponent
	switch game.OpponentKind(body.Opponent.Kind) {
	case game.OpponentHuman:
		if body.Opponent.PlayerID == nil {
			return writeErr(c, game.ErrMissingOpponent)
		}
		id, err := uuid.Parse(*body.Opponent.PlayerID)
		if err != nil {
			return writeErr(c, game.ErrMissingOpponent)
		}
		opp = game.Human(id)
	case game.OpponentBot:
		level := 0
		if body.Opponent.BotLevel != nil {
			level = *body.Opponent.BotLevel
		}
		opp = game.Bot(level)
	default:
		return writeErr(c, game.ErrMissingOpponent)
	}

	g, sess, err := h.creator.Create(c.Request().Context(), white, opp)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, toGameJSON(g, sess))
}

func (h *Handlers) handleGetGame(c echo.Context) error {
	id, err := parseUUIDParam(c, "game_id")
	if err != nil {
		return writeErr(c, err)
	}
	g, sess, err := h.getter.Get(c.Request().Context(), id)
	if err != nil {
		return writeErr(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, toGameJSON(g, sess))
}

func (h *Handlers) handleSubmitMove(c echo.Context) error {
	id, err := parseUUIDParam(c, "game_id")
	if err != nil {
		return writeErr(c, err)
	}

	var body struct {
		UCI string `json:"uci"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}
	if body.UCI == "" {
		return writeErr(c, game.ErrInvalidUCI)
	}

	res, err := h.submitter.Submit(c.Request().Context(), id, body.UCI)
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{
		"accepted": true,
		"fen":      res.FEN,
		"status":   string(res.Status),
		"bot_move": res.BotMove,
		"moves":    res.Moves,
		"pgn":      res.PGN,
	})
}

func (h *Handlers) handleUndoMove(c echo.Context) error {
	id, err := parseUUIDParam(c, "game_id")
	if err != nil {
		return writeErr(c, err)
	}

	body := struct {
		Count int `json:"count"`
	}{Count: 1}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}
	if body.Count < 1 || body.Count > maxUndoCount {
		return writeErr(c, game.ErrNotEnoughMoves)
	}

	res, err := h.undoer.Undo(c.Request().Context(), id, body.Count)
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{
		"fen":    res.FEN,
		"status": string(res.Status),
		"moves":  res.Moves,
	})
}

func (h *Handlers) handleAnalyze(c echo.Context) error {
	id, err := parseUUIDParam(c, "game_id")
	if err != nil {
		return writeErr(c, err)
	}

	var body struct {
		Depth int `json:"depth"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}

	analysis, err := h.analyzer.Analyze(c.Request().Context(), id, body.Depth)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toAnalysisJSON(analysis))
}

func (h *Handlers) handleSuggest(c echo.Context) error {
	id, err := parseUUIDParam(c, "game_id")
	if err != nil {
		return writeErr(c, err)
	}

	sug, err := h.analyzer.Suggest(c.Request().Context(), id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"move":       sug.Move,
		"evaluation": toAnalysisJSON(sug.Analysis),
	})
}

func (h *Handlers) handleRandomPuzzle(c echo.Context) error {
	var difficulty *puzzle.Difficulty
	if raw := c.QueryParam("difficulty"); raw != "" {
		d, ok := puzzle.ParseDifficulty(raw)
		if !ok {
			return writeErr(c, ports.ErrNotFound)
		}
		difficulty = &d
	}

	p, err := h.puzzles.Random(c.Request().Context(), difficulty)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toPuzzleJSON(p))
}

func (h *Handlers) handleGetPuzzle(c echo.Context) error {
	id, err := parseUUIDParam(c, "puzzle_id")
	if err != nil {
		return writeErr(c, err)
	}
	p, err := h.puzzles.Get(c.Request().Context(), id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toPuzzleJSON(p))
}

func (h *Handlers) handleAttemptPuzzle(c echo.Context) error {
	id, err := parseUUIDParam(c, "puzzle_id")
	if err != nil {
		return writeErr(c, err)
	}

	var body struct {
		UCI    string   `json:"uci"`
		UserID *string  `json:"user_id"`
		Played []string `json:"played"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}
	if body.UCI == "" {
		return writeErr(c, game.ErrInvalidUCI)
	}

	var userID *uuid.UUID
	if body.UserID != nil {
		uid, err := uuid.Parse(*body.UserID)
		if err != nil {
			return writeErr(c, ports.ErrNotFound)
		}
		userID = &uid
	}

	res, err := h.solver.Attempt(c.Request().Context(), id, userID, body.Played, body.UCI)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"correct":     res.Correct,
		"message":     res.Message,
		"next_move":   res.NextMove,
		"is_complete": res.Complete,
	})
}

func (h *Handlers) handleUserStats(c echo.Context) error {
	id, err := parseUUIDParam(c, "user_id")
	if err != nil {
		return writeErr(c, err)
	}

	stats, err := h.stats.GetUserStats(c.Request().Context(), id)
	if err != nil {
		return writeErr(c, err)
	}

	byDifficulty := make(map[string]puzzle.DifficultyTotals, len(stats.ByDifficulty))
	for d, totals := range stats.ByDifficulty {
		byDifficulty[string(d)] = totals
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_id":           stats.UserID.String(),
		"total_solved":      stats.TotalSolved,
		"total_failed":      stats.TotalFailed,
		"success_rate":      stats.SuccessRate,
		"best_time_seconds": stats.BestTimeSeconds,
		"by_difficulty":     byDifficulty,
	})
}
