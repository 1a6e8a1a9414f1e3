package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"
)

// StartingFEN is the canonical chess starting position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Status is the game lifecycle state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWhiteWon   Status = "white_won"
	StatusBlackWon   Status = "black_won"
	StatusDraw       Status = "draw"
	StatusAbandoned  Status = "abandoned"
)

// Terminal reports whether s is a game-ending status.
func (s Status) Terminal() bool { return s != StatusInProgress }

// OpponentKind distinguishes a human opponent from the engine.
type OpponentKind string

const (
	OpponentHuman OpponentKind = "human"
	OpponentBot   OpponentKind = "bot"
)

// Sentinel errors returned by the domain layer; the transport layer maps
// these to HTTP problem responses.
var (
	ErrInvalidUCI        = errors.New("invalid_uci")
	ErrIllegalMove       = errors.New("illegal_move")
	ErrGameNotInProgress = errors.New("game_not_in_progress")
	ErrNotEnoughMoves    = errors.New("not_enough_moves")
	ErrMissingOpponent   = errors.New("missing_opponent")
	// ErrCorruptState signals a violated consistency invariant (stored FEN
	// fails to parse, or a logged move is illegal on replay). Never a user
	// mistake; surfaced distinctly so operators can detect corruption.
	ErrCorruptState = errors.New("corrupt_state")
)

// Opponent is a tagged variant: a human opponent carries a player id, a bot
// opponent carries an engine strength level. Using an explicit kind instead
// of a nullable black-player column keeps "no black player yet" from being
// mistaken for "bot game".
type Opponent struct {
	Kind     OpponentKind
	PlayerID *uuid.UUID
	BotLevel int
}

// Human returns a human opponent for playerID.
func Human(playerID uuid.UUID) Opponent {
	id := playerID
	return Opponent{Kind: OpponentHuman, PlayerID: &id}
}

// Bot returns an engine opponent at the given strength level.
func Bot(level int) Opponent {
	return Opponent{Kind: OpponentBot, BotLevel: level}
}

// Game is the durable game entity. PGN and EndedAt are set together when a
// terminal status is reached, and cleared together by undo.
type Game struct {
	ID            uuid.UUID
	WhitePlayerID *uuid.UUID
	Opponent      Opponent
	Status        Status
	PGN           *string
	StartedAt     time.Time
	EndedAt       *time.Time
}

// Session is the mutable current state for one game: the position after all
// logged moves plus the ordered move log itself. Replaying Moves from the
// starting position must always reproduce CurrentFEN exactly.
type Session struct {
	ID         uuid.UUID
	GameID     uuid.UUID
	CurrentFEN string
	Moves      []string
	LastMoveAt time.Time
	CreatedAt  time.Time
}

// NewGame creates an in-progress game. A human opponent must carry a player
// id; a bot opponent must not.
func NewGame(id uuid.UUID, whitePlayerID *uuid.UUID, opp Opponent, now time.Time) (*Game, error) {
	switch opp.Kind {
	case OpponentHuman:
		if opp.PlayerID == nil {
			return nil, ErrMissingOpponent
		}
		opp.BotLevel = 0
	case OpponentBot:
		opp.PlayerID = nil
	default:
		return nil, ErrMissingOpponent
	}
	return &Game{
		ID:            id,
		WhitePlayerID: whitePlayerID,
		Opponent:      opp,
		Status:        StatusInProgress,
		StartedAt:     now,
	}, nil
}

// NewSession creates a session at the canonical starting position with an
// empty move log.
func NewSession(id, gameID uuid.UUID, now time.Time) *Session {
	return &Session{
		ID:         id,
		GameID:     gameID,
		CurrentFEN: StartingFEN,
		Moves:      []string{},
		LastMoveAt: now,
		CreatedAt:  now,
	}
}

// ApplyMove validates uci against the position encoded by fen and returns
// the FEN after the move.
//
// Returns:
//   - ErrCorruptState — fen does not parse (consistency invariant violated)
//   - ErrInvalidUCI   — uci is not valid coordinate-move syntax
//   - ErrIllegalMove  — syntactically valid but not legal in this position
func ApplyMove(fen, uci string) (string, error) {
	if !ValidUCI(uci) {
		return "", ErrInvalidUCI
	}
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("%w: parse fen %q: %v", ErrCorruptState, fen, err)
	}
	cg := chess.NewGame(fenOpt, chess.UseNotation(chess.UCINotation{}))
	if err := cg.MoveStr(uci); err != nil {
		return "", ErrIllegalMove
	}
	return cg.Position().String(), nil
}

// Replay rebuilds the full game from the canonical starting position by
// applying every move in order. A move that is illegal against the
// incrementally built position means the log is corrupted.
func Replay(moves []string) (*chess.Game, error) {
	cg := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	for i, uci := range moves {
		if err := cg.MoveStr(uci); err != nil {
			return nil, fmt.Errorf("%w: replay move %d (%q): %v", ErrCorruptState, i, uci, err)
		}
	}
	return cg, nil
}

// FENOf returns the FEN of cg's current position.
func FENOf(cg *chess.Game) string {
	return cg.Position().String()
}

// BlackToMove reports whether it is black's turn in the position encoded
// by fen.
func BlackToMove(fen string) (bool, error) {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return false, fmt.Errorf("%w: parse fen %q: %v", ErrCorruptState, fen, err)
	}
	cg := chess.NewGame(fenOpt)
	return cg.Position().Turn() == chess.Black, nil
}

// EvaluateOutcome inspects a fully replayed game for terminal conditions.
// Checkmate maps to a win for the side that just moved; stalemate,
// insufficient material, repetition and the 75-move rule map to a draw.
// Threefold repetition is claimed eagerly: the service has no draw-offer
// flow, so an eligible repetition ends the game.
func EvaluateOutcome(cg *chess.Game) (Status, bool) {
	if cg.Outcome() == chess.NoOutcome {
		for _, m := range cg.EligibleDraws() {
			if m == chess.ThreefoldRepetition {
				_ = cg.Draw(m)
				break
			}
		}
	}
	switch cg.Outcome() {
	case chess.WhiteWon:
		return StatusWhiteWon, true
	case chess.BlackWon:
		return StatusBlackWon, true
	case chess.Draw:
		return StatusDraw, true
	default:
		return StatusInProgress, false
	}
}

// Notation returns the portable game record (PGN) for cg.
func Notation(cg *chess.Game) string {
	return cg.String()
}

// LegalMoves returns the UCI encoding of every legal move in the position
// encoded by fen.
func LegalMoves(fen string) ([]string, error) {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: parse fen %q: %v", ErrCorruptState, fen, err)
	}
	pos := chess.NewGame(fenOpt).Position()
	notation := chess.UCINotation{}
	moves := pos.ValidMoves()
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = notation.Encode(pos, m)
	}
	return out, nil
}

// ValidUCI returns true iff s is valid coordinate notation:
// [a-h][1-8][a-h][1-8] with an optional promotion piece [qrbn].
func ValidUCI(s string) bool {
	if len(s) < 4 || len(s) > 5 {
		return false
	}
	if s[0] < 'a' || s[0] > 'h' {
		return false
	}
	if s[1] < '1' || s[1] > '8' {
		return false
	}
	if s[2] < 'a' || s[2] > 'h' {
		return false
	}
	if s[3] < '1' || s[3] > '8' {
		return false
	}
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
		default:
			return false
		}
	}
	return true
}
