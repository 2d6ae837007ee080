package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"cat-endurance/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath              string
	ServerPort          string
	LogLevel            string
	LeaderboardMaxSize  int
	DefaultLimit        int
	MaintenanceInterval time.Duration
	AllowedOrigins      []string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:              getEnv("DB_PATH", "cat-endurance.db"),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LeaderboardMaxSize:  getEnvInt(logger, "LEADERBOARD_MAX_SIZE", constants.LeaderboardMaxSize),
		DefaultLimit:        getEnvInt(logger, "LEADERBOARD_DEFAULT_LIMIT", constants.DefaultLeaderboardLimit),
		MaintenanceInterval: getEnvDuration(logger, "MAINTENANCE_INTERVAL", constants.DefaultMaintenanceInterval),
		AllowedOrigins:      getEnvList("ALLOWED_ORIGINS", []string{"*"}),
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("leaderboard_max_size", cfg.LeaderboardMaxSize).
		Int("default_limit", cfg.DefaultLimit).
		Dur("maintenance_interval", cfg.MaintenanceInterval).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(logger zerolog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		logger.Warn().Str("key", key).Str("value", v).Int("fallback", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return i
}

// A zero duration is valid and disables the periodic sweep.
func getEnvDuration(logger zerolog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		logger.Warn().Str("key", key).Str("value", v).Dur("fallback", fallback).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

var Module = fx.Provide(Load)
