package engine

import (
	"reflect"
	"testing"

	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

func TestParseInfo_FullLine(t *testing.T) {
	line := "info depth 12 seldepth 16 multipv 1 score cp 35 nodes 54321 nps 1000000 time 54 pv e2e4 e7e5 g1f3"
	a, ok := parseInfo(line)
	if !ok {
		t.Fatal("expected a parseable info line")
	}
	if a.Depth != 12 {
		t.Fatalf("depth: want 12, got %d", a.Depth)
	}
	if a.ScoreCP != 35 {
		t.Fatalf("score: want 35, got %d", a.ScoreCP)
	}
	if a.Nodes != 54321 {
		t.Fatalf("nodes: want 54321, got %d", a.Nodes)
	}
	if a.ElapsedMs != 54 {
		t.Fatalf("time: want 54, got %d", a.ElapsedMs)
	}
	if !reflect.DeepEqual(a.PV, []string{"e2e4", "e7e5", "g1f3"}) {
		t.Fatalf("pv: got %v", a.PV)
	}
}

func TestParseInfo_MateScore(t *testing.T) {
	a, ok := parseInfo("info depth 8 score mate 3 pv d1h5")
	if !ok {
		t.Fatal("expected a parseable info line")
	}
	if a.ScoreCP != mateScoreCP {
		t.Fatalf("mate for the side to move: want %d, got %d", mateScoreCP, a.ScoreCP)
	}

	a, ok = parseInfo("info depth 8 score mate -2 pv e8f7")
	if !ok {
		t.Fatal("expected a parseable info line")
	}
	if a.ScoreCP != -mateScoreCP {
		t.Fatalf("mated: want %d, got %d", -mateScoreCP, a.ScoreCP)
	}
}

func TestParseInfo_NoPV(t *testing.T) {
	if _, ok := parseInfo("info depth 1 score cp 10 nodes 20"); ok {
		t.Fatal("lines without a pv must be skipped")
	}
}

func TestGoTokens(t *testing.T) {
	got := goTokens(ports.SearchBudget{Depth: 10, MoveTimeMillis: 500})
	if !reflect.DeepEqual(got, []string{"go", "depth", "10"}) {
		t.Fatalf("depth must win over movetime, got %v", got)
	}

	got = goTokens(ports.SearchBudget{MoveTimeMillis: 500})
	if !reflect.DeepEqual(got, []string{"go", "movetime", "500"}) {
		t.Fatalf("movetime budget, got %v", got)
	}

	got = goTokens(ports.SearchBudget{})
	if !reflect.DeepEqual(got, []string{"go", "movetime", "1000"}) {
		t.Fatalf("empty budget fallback, got %v", got)
	}
}

func TestPositionCommand(t *testing.T) {
	if got := positionCommand(""); got != "position startpos\n" {
		t.Fatalf("empty fen: got %q", got)
	}
	fen := "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1"
	if got := positionCommand(fen); got != "position fen "+fen+"\n" {
		t.Fatalf("fen position: got %q", got)
	}
}
