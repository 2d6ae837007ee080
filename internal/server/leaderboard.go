package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cat-endurance/internal/ranking"
	"cat-endurance/internal/service"

	"github.com/rs/zerolog"
)

// LeaderboardServer exposes the leaderboard service as JSON endpoints under /api.
type LeaderboardServer struct {
	svc    *service.LeaderboardService
	store  ranking.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewLeaderboardServer(svc *service.LeaderboardService, store ranking.Store, logger zerolog.Logger) *LeaderboardServer {
	return &LeaderboardServer{svc: svc, store: store, logger: logger, now: time.Now}
}

func (s *LeaderboardServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/submit-score", s.SubmitScore)
	mux.HandleFunc("GET /api/leaderboard", s.Leaderboard)
	mux.HandleFunc("GET /api/leaderboard/stats", s.ContinentStats)
	mux.HandleFunc("GET /api/player-best", s.PlayerBest)
	mux.HandleFunc("POST /api/add-test-data", s.AddTestData)
	mux.HandleFunc("GET /api/debug-leaderboard", s.DebugLeaderboard)
	mux.HandleFunc("GET /api/health", s.Health)
	mux.HandleFunc("POST /api/maintenance", s.Maintenance)
}

func (s *LeaderboardServer) log(r *http.Request) *zerolog.Logger {
	return requestLogger(r, &s.logger)
}

func (s *LeaderboardServer) SubmitScore(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	record, err := service.ParseSubmission(body)
	if err != nil {
		s.log(r).Warn().Err(err).Msg("submit score validation error")
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.svc.SubmitScore(r.Context(), record)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	writeData(w, r, http.StatusCreated, result, result.Message)
}

// Leaderboard reads limit leniently: anything that is not a positive integer means the default.
func (s *LeaderboardServer) Leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil {
		limit = 0
	}

	data := s.svc.Leaderboard(r.Context(), limit, q.Get("continentId"))
	writeData(w, r, http.StatusOK, data, "")
}

func (s *LeaderboardServer) ContinentStats(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, s.svc.ContinentStats(r.Context()), "")
}

func (s *LeaderboardServer) PlayerBest(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		writeError(w, r, http.StatusBadRequest, "playerId is required")
		return
	}
	writeData(w, r, http.StatusOK, s.svc.PlayerBest(r.Context(), playerID), "")
}

func (s *LeaderboardServer) AddTestData(w http.ResponseWriter, r *http.Request) {
	results := s.svc.SeedTestData(r.Context())
	writeData(w, r, http.StatusOK, results, fmt.Sprintf("Added %d test players to leaderboard", len(results)))
}

func (s *LeaderboardServer) DebugLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.svc.DebugDump(r.Context())
	writeJSON(w, r, http.StatusOK, envelope{Status: statusSuccess, Message: "Endurance leaderboard debug info written to the server log"})
}

func (s *LeaderboardServer) Health(w http.ResponseWriter, r *http.Request) {
	timestamp := s.now().UTC().Format(time.RFC3339Nano)
	if err := s.store.Ping(r.Context()); err != nil {
		s.log(r).Error().Err(err).Msg("health check failed")
		writeJSON(w, r, http.StatusInternalServerError, healthResponse{
			Status:    statusError,
			Message:   "Health check failed",
			Timestamp: timestamp,
		})
		return
	}
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:    statusSuccess,
		Message:   "Server and store are healthy",
		Timestamp: timestamp,
	})
}

func (s *LeaderboardServer) Maintenance(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.RunMaintenance(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, r, http.StatusOK, report, "")
}
