package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration read from environment variables.
type Config struct {
	Port        string
	DatabaseURL string

	LogLevel  string
	LogFormat string

	// Engine settings. An empty StockfishPath selects the built-in random
	// mover, which keeps bot games playable in development.
	StockfishPath    string
	EngineSkillLevel int
	EngineDepth      int
	EngineMoveTimeMs int
	EngineTimeout    time.Duration

	SchedulerEnabled  bool
	SchedulerInterval time.Duration
	LockDir           string
	// Games with no move for this long are marked abandoned.
	AbandonAfter time.Duration

	AlertsEnabled bool
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPassword  string
	AlertFrom     string
	AlertTo       string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		StockfishPath:    os.Getenv("STOCKFISH_PATH"),
		EngineSkillLevel: getint("ENGINE_SKILL_LEVEL", 10),
		EngineDepth:      getint("ENGINE_DEPTH", 12),
		EngineMoveTimeMs: getint("ENGINE_MOVE_TIME_MS", 1000),
		EngineTimeout:    getduration("ENGINE_TIMEOUT", 10*time.Second),

		SchedulerEnabled:  getbool("SCHEDULER_ENABLED", true),
		SchedulerInterval: getduration("SCHEDULER_INTERVAL", time.Hour),
		LockDir:           getenv("LOCK_DIR", os.TempDir()),
		AbandonAfter:      getduration("ABANDON_AFTER", 24*time.Hour),

		AlertsEnabled: getbool("ALERTS_ENABLED", false),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getenv("SMTP_PORT", "587"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		AlertFrom:     os.Getenv("ALERT_FROM"),
		AlertTo:       os.Getenv("ALERT_TO"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
