package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/chess-academy-backend/internal/domain/game"
	"github.com/randomtoy/chess-academy-backend/internal/domain/puzzle"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
	"github.com/randomtoy/chess-academy-backend/internal/usecase"
)

const errBase = "https://errors.chess-academy.local"

// Problem is the problem+json response body.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// MoveProblem extends Problem with a machine-readable move rejection code.
type MoveProblem struct {
	Problem
	Code string `json:"code"`
}

// writeErr maps a domain/usecase error to the correct HTTP response.
func writeErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return c.JSON(http.StatusNotFound, Problem{
			Type:   errBase + "/not-found",
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: "Resource not found.",
		})
	case errors.Is(err, game.ErrMissingOpponent):
		return c.JSON(http.StatusBadRequest, Problem{
			Type:   errBase + "/invalid-opponent",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: "A human game needs a black player id; a bot game must not carry one.",
		})
	case errors.Is(err, game.ErrGameNotInProgress):
		return c.JSON(http.StatusUnprocessableEntity, MoveProblem{
			Problem: Problem{
				Type:   errBase + "/invalid-state",
				Title:  "Unprocessable Entity",
				Status: http.StatusUnprocessableEntity,
				Detail: "Game is not in progress.",
			},
			Code: "game_not_in_progress",
		})
	case errors.Is(err, game.ErrNotEnoughMoves):
		return c.JSON(http.StatusUnprocessableEntity, MoveProblem{
			Problem: Problem{
				Type:   errBase + "/invalid-state",
				Title:  "Unprocessable Entity",
				Status: http.StatusUnprocessableEntity,
				Detail: "Cannot undo more moves than were played.",
			},
			Code: "not_enough_moves",
		})
	case errors.Is(err, game.ErrInvalidUCI):
		return c.JSON(http.StatusUnprocessableEntity, MoveProblem{
			Problem: Problem{
				Type:   errBase + "/illegal-move",
				Title:  "Unprocessable Entity",
				Status: http.StatusUnprocessableEntity,
				Detail: "Move string is not valid UCI notation.",
			},
			Code: "invalid_uci",
		})
	case errors.Is(err, game.ErrIllegalMove):
		return c.JSON(http.StatusUnprocessableEntity, MoveProblem{
			Problem: Problem{
				Type:   errBase + "/illegal-move",
				Title:  "Unprocessable Entity",
				Status: http.StatusUnprocessableEntity,
				Detail: "Move is not legal in the current position.",
			},
			Code: "illegal_move",
		})
	case errors.Is(err, usecase.ErrNoMoveAvailable):
		return c.JSON(http.StatusUnprocessableEntity, MoveProblem{
			Problem: Problem{
				Type:   errBase + "/invalid-state",
				Title:  "Unprocessable Entity",
				Status: http.StatusUnprocessableEntity,
				Detail: "The position is terminal; there is no move to suggest.",
			},
			Code: "no_move_available",
		})
	case errors.Is(err, usecase.ErrEngineUnavailable):
		return c.JSON(http.StatusServiceUnavailable, Problem{
			Type:   errBase + "/engine-unavailable",
			Title:  "Service Unavailable",
			Status: http.StatusServiceUnavailable,
			Detail: "The analysis engine did not answer in time.",
		})
	case errors.Is(err, game.ErrCorruptState):
		return c.JSON(http.StatusInternalServerError, Problem{
			Type:   errBase + "/corrupt-state",
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
			Detail: "Stored game state failed a consistency check.",
		})
	case errors.Is(err, puzzle.ErrInvalidData):
		return c.JSON(http.StatusInternalServerError, Problem{
			Type:   errBase + "/invalid-puzzle-data",
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
			Detail: "Stored puzzle data is unusable.",
		})
	default:
		return c.JSON(http.StatusInternalServerError, Problem{
			Type:   errBase + "/internal",
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
			Detail: "Unexpected error.",
		})
	}
}
