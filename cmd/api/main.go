package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/adapters/memory"
	pgstore "github.com/randomtoy/chess-academy-backend/internal/adapters/postgres"
	"github.com/randomtoy/chess-academy-backend/internal/alert"
	"github.com/randomtoy/chess-academy-backend/internal/config"
	"github.com/randomtoy/chess-academy-backend/internal/domain/puzzle"
	"github.com/randomtoy/chess-academy-backend/internal/engine"
	"github.com/randomtoy/chess-academy-backend/internal/lock"
	"github.com/randomtoy/chess-academy-backend/internal/logging"
	"github.com/randomtoy/chess-academy-backend/internal/ports"
	"github.com/randomtoy/chess-academy-backend/internal/retry"
	"github.com/randomtoy/chess-academy-backend/internal/scheduler"
	"github.com/randomtoy/chess-academy-backend/internal/sysmetrics"
	transporthttp "github.com/randomtoy/chess-academy-backend/internal/transport/http"
	"github.com/randomtoy/chess-academy-backend/internal/usecase"
)

// appStore is what the wiring needs from a storage backend; both adapters
// satisfy it.
type appStore interface {
	ports.GameStore
	ports.PuzzleStore
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store appStore
	if cfg.DatabaseURL != "" {
		poolCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgxpool.New(poolCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatal("pgxpool.New", zap.Error(err))
		}
		defer pool.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := pool.Ping(pingCtx); err != nil {
			log.Fatal("db ping", zap.Error(err))
		}
		pingCancel()
		log.Info("connected to database")
		store = pgstore.New(pool)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		store = memory.New()
	}
	seedPuzzles(ctx, store, log)

	var eng ports.Engine
	if cfg.StockfishPath != "" {
		uci, err := engine.NewUCI(ctx, cfg.StockfishPath, cfg.EngineSkillLevel, log)
		if err != nil {
			log.Fatal("start engine", zap.Error(err))
		}
		defer uci.Close()
		eng = uci
	} else {
		log.Warn("STOCKFISH_PATH not set, using random mover")
		eng = engine.NewRandom()
	}

	params := usecase.EngineParams{
		Budget: ports.SearchBudget{
			Depth:          cfg.EngineDepth,
			MoveTimeMillis: cfg.EngineMoveTimeMs,
			SkillLevel:     cfg.EngineSkillLevel,
		},
		Timeout: cfg.EngineTimeout,
		Retry:   retry.DefaultPolicy,
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

	if cfg.SchedulerEnabled {
		mailer := alert.NewMailer(alert.Config{
			Enabled:  cfg.AlertsEnabled,
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.AlertFrom,
			To:       cfg.AlertTo,
		}, log)
		janitor := usecase.NewGameJanitor(store, locks, cfg.AbandonAfter, log)

		sched := scheduler.New(lock.NewFileLocker(cfg.LockDir), mailer, log)
		sched.Register(scheduler.Task{
			Name:  "abandon_stale_games",
			Every: cfg.SchedulerInterval,
			Fn:    janitor.AbandonStale,
		})
		sched.Register(scheduler.Task{
			Name:         "sysmetrics_snapshot",
			Every:        cfg.SchedulerInterval,
			RunOnStartup: true,
			Fn: func(ctx context.Context) error {
				snap, err := sysmetrics.Collect(ctx)
				if err != nil {
					return err
				}
				log.Info("system snapshot",
					zap.Float64("cpu_pct", snap.CPUPercent),
					zap.Float64("mem_pct", snap.MemPercent),
					zap.Uint64("mem_used_mb", snap.MemUsedMB),
					zap.Float64("disk_pct", snap.DiskPercent),
				)
				return nil
			},
		})
		go sched.Run(ctx)
	}

	e := transporthttp.New(h, log)
	go func() {
		log.Info("starting server", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

// seedPuzzles loads a small starter set on an empty database so the puzzle
// endpoints work out of the box.
func seedPuzzles(ctx context.Context, store ports.PuzzleStore, log *zap.Logger) {
	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	n, err := store.CountPuzzles(seedCtx)
	if err != nil {
		log.Warn("puzzle seed check failed", zap.Error(err))
		return
	}
	if n > 0 {
		return
	}

	theme := func(s string) *string { return &s }
	now := time.Now().UTC()
	seeds := []puzzle.Puzzle{
		{
			ID:          uuid.New(),
			FEN:         "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1",
			Solution:    []string{"a1a8"},
			Difficulty:  puzzle.DifficultyEasy,
			Theme:       theme("back_rank"),
			Description: theme("White mates in one."),
			CreatedAt:   now,
		},
		{
			ID:          uuid.New(),
			FEN:         "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
			Solution:    []string{"f3f7"},
			Difficulty:  puzzle.DifficultyEasy,
			Theme:       theme("scholars_mate"),
			Description: theme("Finish the classic attack on f7."),
			CreatedAt:   now,
		},
		{
			ID:          uuid.New(),
			FEN:         "6k1/5ppp/8/8/8/8/4rPPP/R5K1 w - - 0 1",
			Solution:    []string{"a1a8", "e2e8", "a8e8"},
			Difficulty:  puzzle.DifficultyMedium,
			Theme:       theme("back_rank"),
			Description: theme("Force the block, then take it."),
			CreatedAt:   now,
		},
	}
	for _, p := range seeds {
		p := p
		if err := store.InsertPuzzle(seedCtx, &p); err != nil {
			log.Warn("puzzle seed insert failed", zap.Error(err))
			return
		}
	}
	log.Info("seeded starter puzzles", zap.Int("count", len(seeds)))
}
