package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/adapters/memory"
	"github.com/randomtoy/chess-academy-backend/internal/domain/puzzle"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
	"github.com/randomtoy/chess-academy-backend/internal/retry"
	transporthttp "github.com/randomtoy/chess-academy-backend/internal/transport/http"
	"github.com/randomtoy/chess-academy-backend/internal/usecase"
)

type testEnv struct {
	store    *memory.Store
	engine   *memory.ScriptedEngine
	handlers *transporthttp.Handlers
}

func newTestServer(t *testing.T, eng *memory.ScriptedEngine) *testEnv {
	t.Helper()
	store := memory.New()
	log := zap.NewNop()
	params := usecase.EngineParams{
		Budget:  ports.SearchBudget{Depth: 4},
		Timeout: time.Second,
		Retry:   retry.Policy{MaxAttempts: 1},
	}
	locks := usecase.NewGameLocks()

	h := transporthttp.NewHandlers(
		usecase.NewGameCreator(store, log),
		usecase.NewGameGetter(store),
		usecase.NewMoveSubmitter(store, eng, params, locks, log),
		usecase.NewUndoer(store, locks, log),
		usecase.NewAnalyzer(store, eng, params, log),
		usecase.NewPuzzleGetter(store),
		usecase.NewPuzzleSolver(store, log),
		usecase.NewStatsReader(store),
	)
	return &testEnv{store: store, engine: eng, handlers: h}
}

func doRequest(t *testing.T, env *testEnv, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	transporthttp.New(env.handlers, zap.NewNop()).ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createBotGame(t *testing.T, env *testEnv) string {
	t.Helper()
	rec := doRequest(t, env, http.MethodPost, "/api/v1/games", map[string]any{
		"opponent": map[string]any{"kind": "bot", "bot_level": 3},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create game: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		GameID string `json:"game_id"`
	}
	decodeJSON(t, rec, &resp)
	if resp.GameID == "" {
		t.Fatal("expected non-empty game_id")
	}
	return resp.GameID
}

func seedPuzzle(t *testing.T, env *testEnv, solution []string) string {
	t.Helper()
	p := &puzzle.Puzzle{
		ID:         uuid.New(),
		FEN:        "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1",
		Solution:   solution,
		Difficulty: puzzle.DifficultyEasy,
		CreatedAt:  time.Now().UTC(),
	}
	if err := env.store.InsertPuzzle(context.Background(), p); err != nil {
		t.Fatalf("InsertPuzzle: %v", err)
	}
	return p.ID.String()
}

func TestHealthz(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	rec := doRequest(t, env, http.MethodGet, "/api/v1/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]bool
	decodeJSON(t, rec, &resp)
	if !resp["ok"] {
		t.Fatalf("expected ok:true, got %v", resp)
	}
}

func TestCreateGame_Bot(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	rec := doRequest(t, env, http.MethodPost, "/api/v1/games", map[string]any{
		"opponent": map[string]any{"kind": "bot", "bot_level": 7},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status   string `json:"status"`
		FEN      string `json:"fen"`
		Opponent struct {
			Kind     string `json:"kind"`
			BotLevel *int   `json:"bot_level"`
		} `json:"opponent"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Status != "in_progress" {
		t.Fatalf("expected in_progress, got %q", resp.Status)
	}
	if resp.Opponent.Kind != "bot" || resp.Opponent.BotLevel == nil || *resp.Opponent.BotLevel != 7 {
		t.Fatalf("opponent wrong: %+v", resp.Opponent)
	}
	if resp.FEN == "" {
		t.Fatal("expected starting position in response")
	}
}

func TestCreateGame_HumanWithoutPlayerID(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	rec := doRequest(t, env, http.MethodPost, "/api/v1/games", map[string]any{
		"opponent": map[string]any{"kind": "human"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitMove_BotReply(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{Moves: []string{"e7e5"}})
	id := createBotGame(t, env)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/games/"+id+"/moves", map[string]any{"uci": "e2e4"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Accepted bool     `json:"accepted"`
		Status   string   `json:"status"`
		BotMove  *string  `json:"bot_move"`
		Moves    []string `json:"moves"`
	}
	decodeJSON(t, rec, &resp)
	if !resp.Accepted {
		t.Fatal("expected accepted:true")
	}
	if resp.BotMove == nil || *resp.BotMove != "e7e5" {
		t.Fatalf("expected bot_move e7e5, got %v", resp.BotMove)
	}
	if len(resp.Moves) != 2 {
		t.Fatalf("expected two plies, got %v", resp.Moves)
	}
}

func TestSubmitMove_Illegal(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	id := createBotGame(t, env)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/games/"+id+"/moves", map[string]any{"uci": "e2e5"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Code string `json:"code"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Code != "illegal_move" {
		t.Fatalf("expected code illegal_move, got %q", resp.Code)
	}
}

func TestSubmitMove_GameNotFound(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	rec := doRequest(t, env, http.MethodPost, "/api/v1/games/"+uuid.NewString()+"/moves", map[string]any{"uci": "e2e4"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetGame_MalformedID(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	rec := doRequest(t, env, http.MethodGet, "/api/v1/games/not-a-uuid", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUndoMove(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{Moves: []string{"e7e5"}})
	id := createBotGame(t, env)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/games/"+id+"/moves", map[string]any{"uci": "e2e4"})
	if rec.Code != http.StatusOK {
		t.Fatalf("move: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, env, http.MethodPost, "/api/v1/games/"+id+"/undo", map[string]any{"count": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("undo: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Moves []string `json:"moves"`
		FEN   string   `json:"fen"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Moves) != 0 {
		t.Fatalf("expected empty move log, got %v", resp.Moves)
	}
}

func TestUndoMove_CountOutOfRange(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	id := createBotGame(t, env)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/games/"+id+"/undo", map[string]any{"count": 50})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestAnalyze(t *testing.T) {
	eng := &memory.ScriptedEngine{
		Analysis: ports.Analysis{ScoreCP: 42, Depth: 8, PV: []string{"e2e4"}, Nodes: 1000, ElapsedMs: 25},
	}
	env := newTestServer(t, eng)
	id := createBotGame(t, env)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/games/"+id+"/analyze", map[string]any{"depth": 8})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ScoreCP int      `json:"score_cp"`
		Depth   int      `json:"depth"`
		PV      []string `json:"pv"`
	}
	decodeJSON(t, rec, &resp)
	if resp.ScoreCP != 42 || resp.Depth != 8 || len(resp.PV) != 1 {
		t.Fatalf("unexpected analysis: %+v", resp)
	}
}

func TestSuggest_EngineDown(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{Err: context.DeadlineExceeded})
	id := createBotGame(t, env)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/games/"+id+"/suggest", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPuzzleFlow(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	id := seedPuzzle(t, env, []string{"a1a8"})
	userID := uuid.NewString()

	rec := doRequest(t, env, http.MethodGet, "/api/v1/puzzles/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get puzzle: expected 200, got %d", rec.Code)
	}
	var pz struct {
		FEN      string   `json:"fen"`
		Solution []string `json:"solution"`
	}
	decodeJSON(t, rec, &pz)
	if pz.FEN == "" {
		t.Fatal("expected puzzle position")
	}
	if pz.Solution != nil {
		t.Fatal("solution must never be exposed")
	}

	rec = doRequest(t, env, http.MethodPost, "/api/v1/puzzles/"+id+"/attempts", map[string]any{
		"uci":     "a1a8",
		"user_id": userID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("attempt: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var attempt struct {
		Correct    bool `json:"correct"`
		IsComplete bool `json:"is_complete"`
	}
	decodeJSON(t, rec, &attempt)
	if !attempt.Correct || !attempt.IsComplete {
		t.Fatalf("expected solved puzzle, got %+v", attempt)
	}

	rec = doRequest(t, env, http.MethodGet, "/api/v1/users/"+userID+"/puzzle-stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}
	var stats struct {
		TotalSolved int     `json:"total_solved"`
		SuccessRate float64 `json:"success_rate"`
	}
	decodeJSON(t, rec, &stats)
	if stats.TotalSolved != 1 || stats.SuccessRate != 100 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRandomPuzzle_FilterByDifficulty(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	seedPuzzle(t, env, []string{"a1a8"})

	rec := doRequest(t, env, http.MethodGet, "/api/v1/puzzles/random?difficulty=easy", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, env, http.MethodGet, "/api/v1/puzzles/random?difficulty=expert", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("no expert puzzles seeded: expected 404, got %d", rec.Code)
	}
}

func TestRandomPuzzle_UnknownDifficulty(t *testing.T) {
	env := newTestServer(t, &memory.ScriptedEngine{})
	seedPuzzle(t, env, []string{"a1a8"})

	rec := doRequest(t, env, http.MethodGet, "/api/v1/puzzles/random?difficulty=ultra", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
