package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// New constructs and returns a configured Echo instance.
func New(h *Handlers, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogMethod:  true,
		LogURI:     true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/api/v1/healthz", h.handleHealthz)

	e.POST("/api/v1/games", h.handleCreateGame)
	e.GET("/api/v1/games/:game_id", h.handleGetGame)
	e.POST("/api/v1/games/:game_id/moves", h.handleSubmitMove)
	e.POST("/api/v1/games/:game_id/undo", h.handleUndoMove)
	e.POST("/api/v1/games/:game_id/analyze", h.handleAnalyze)
	e.POST("/api/v1/games/:game_id/suggest", h.handleSuggest)

	e.GET("/api/v1/puzzles/random", h.handleRandomPuzzle)
	e.GET("/api/v1/puzzles/:puzzle_id", h.handleGetPuzzle)
	e.POST("/api/v1/puzzles/:puzzle_id/attempts", h.handleAttemptPuzzle)
	e.GET("/api/v1/users/:user_id/puzzle-stats", h.handleUserStats)

	return e
}
