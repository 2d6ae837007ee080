package domain

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ScoreRecord is stored as JSON in the player scores hash, keyed by PlayerID.
type ScoreRecord struct {
	PlayerID          string  `json:"playerId"`
	PlayerName        string  `json:"playerName"`
	CatAvatarID       string  `json:"catAvatarId"`
	ContinentID       string  `json:"continentId"`
	EnduranceDuration float64 `json:"enduranceDuration"` // seconds
	CompletedAt       int64   `json:"completedAt"`       // unix millis

	// legacy, carried but never ranked on
	CompletionTime  *float64   `json:"completionTime,omitempty"`
	RoundsCompleted *int       `json:"roundsCompleted,omitempty"`
	TotalTime       *float64   `json:"totalTime,omitempty"`
	Difficulty      Difficulty `json:"difficulty,omitempty"`
	CountryCode     string     `json:"countryCode,omitempty"`
}

type LeaderboardEntry struct {
	ScoreRecord
	Rank int `json:"rank"`
}

type LeaderboardData struct {
	Entries      []LeaderboardEntry `json:"entries"`
	TotalPlayers int                `json:"totalPlayers"`
	LastUpdated  int64              `json:"lastUpdated"`
	ContinentID  string             `json:"continentId,omitempty"`
}

type ContinentStats struct {
	ContinentID   string `json:"continentId"`
	ContinentName string `json:"continentName"`
	PlayerCount   int    `json:"playerCount"`
	Flag          string `json:"flag"`
}

type SubmitResult struct {
	Success           bool    `json:"success"`
	Rank              int     `json:"rank"`
	EnduranceDuration float64 `json:"enduranceDuration"`
	Message           string  `json:"message"`
}

type ReconcileReport struct {
	OrphanedIndex int `json:"orphanedIndex"`
	Reindexed     int `json:"reindexed"`
}

type MaintenanceReport struct {
	Pruned    int             `json:"pruned"`
	Corrupted int             `json:"corrupted"`
	Reconcile ReconcileReport `json:"reconcile"`
}
