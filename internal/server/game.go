package server

import (
	"encoding/json"
	"net/http"

	"cat-endurance/internal/game"

	"github.com/rs/zerolog"
)

// GameServer runs the tick engine for clients that keep their own game state. Every call
// takes the state in and hands the next one back; nothing is stored between requests.
type GameServer struct {
	engine *game.Engine
	logger zerolog.Logger
}

func NewGameServer(engine *game.Engine, logger zerolog.Logger) *GameServer {
	return &GameServer{engine: engine, logger: logger}
}

func (s *GameServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/update-game", s.UpdateGame)
	mux.HandleFunc("POST /api/button-press", s.ButtonPress)
	mux.HandleFunc("POST /api/reset-game", s.ResetGame)
}

type gameResponse struct {
	Status       string     `json:"status"`
	GameState    game.State `json:"gameState"`
	CurrentRound int        `json:"currentRound,omitempty"`
}

type updateGameRequest struct {
	GameState *game.State     `json:"gameState"`
	DeltaTime json.RawMessage `json:"deltaTime"`
}

type buttonPressRequest struct {
	GameState  *game.State     `json:"gameState"`
	ButtonType string          `json:"buttonType"`
	IsPressed  json.RawMessage `json:"isPressed"`
}

type resetGameRequest struct {
	NewRound     bool `json:"newRound"`
	CurrentRound int  `json:"currentRound"`
}

// UpdateGame advances the posted state by deltaTime seconds, clamped like any other tick.
func (s *GameServer) UpdateGame(w http.ResponseWriter, r *http.Request) {
	var req updateGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var dt float64
	if !decodeRequired(req.DeltaTime, &dt) {
		writeError(w, r, http.StatusBadRequest, "deltaTime is required")
		return
	}
	if req.GameState == nil {
		writeError(w, r, http.StatusBadRequest, "gameState is required")
		return
	}

	writeJSON(w, r, http.StatusOK, gameResponse{
		Status:    statusSuccess,
		GameState: s.engine.Tick(*req.GameState, dt),
	})
}

func (s *GameServer) ButtonPress(w http.ResponseWriter, r *http.Request) {
	var req buttonPressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var pressed bool
	if req.ButtonType == "" || !decodeRequired(req.IsPressed, &pressed) {
		writeError(w, r, http.StatusBadRequest, "buttonType and isPressed are required")
		return
	}
	button, err := game.ParseButton(req.ButtonType)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.GameState == nil {
		writeError(w, r, http.StatusBadRequest, "gameState is required")
		return
	}

	writeJSON(w, r, http.StatusOK, gameResponse{
		Status:    statusSuccess,
		GameState: s.engine.Press(*req.GameState, button, pressed),
	})
}

// ResetGame starts a fresh game. An empty body is a reset of round one.
func (s *GameServer) ResetGame(w http.ResponseWriter, r *http.Request) {
	var req resetGameRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	round := max(req.CurrentRound, 1)
	if req.NewRound && req.CurrentRound > 0 {
		round = req.CurrentRound + 1
	}

	requestLogger(r, &s.logger).Debug().Int("round", round).Msg("game reset")
	writeJSON(w, r, http.StatusOK, gameResponse{
		Status:       statusSuccess,
		GameState:    s.engine.Start(),
		CurrentRound: round,
	})
}

// decodeRequired reports whether raw holds a non-null value of v's type.
func decodeRequired(raw json.RawMessage, v any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
