package constants

import "time"

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	ClientTimeout   = 10 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	LeaderboardKey  = "global_leaderboard"
	PlayerScoresKey = "player_scores_hash"
)

const (
	DefaultLeaderboardLimit = 100
	LeaderboardMaxSize      = 1000
	DebugTopN               = 10
	RecordLoadConcurrency   = 16
	MaxRequestBodyBytes     = 64 << 10
)

const (
	DefaultMaintenanceInterval = 10 * time.Minute
)
