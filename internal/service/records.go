package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"cat-endurance/internal/domain"
)

type submission struct {
	PlayerID          string            `json:"playerId"`
	PlayerName        string            `json:"playerName"`
	CatAvatarID       string            `json:"catAvatarId"`
	ContinentID       string            `json:"continentId"`
	EnduranceDuration *float64          `json:"enduranceDuration"`
	CompletionTime    *float64          `json:"completionTime,omitempty"`
	RoundsCompleted   *int              `json:"roundsCompleted,omitempty"`
	TotalTime         *float64          `json:"totalTime,omitempty"`
	Difficulty        domain.Difficulty `json:"difficulty,omitempty"`
	CountryCode       string            `json:"countryCode,omitempty"`
}

// ParseSubmission decodes a client submission body. Any client supplied completedAt is
// ignored. Missing or mistyped required fields come back as a *ValidationError.
func ParseSubmission(body []byte) (domain.ScoreRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return domain.ScoreRecord{}, newValidationError("body", "is required")
	}

	var sub submission
	if err := json.Unmarshal(body, &sub); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.ScoreRecord{}, newValidationError(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type))
		}
		return domain.ScoreRecord{}, newValidationError("body", "is not a valid JSON object")
	}
	if sub.EnduranceDuration == nil {
		return domain.ScoreRecord{}, newValidationError("enduranceDuration", "is required")
	}

	record := domain.ScoreRecord{
		PlayerID:          sub.PlayerID,
		PlayerName:        sub.PlayerName,
		CatAvatarID:       sub.CatAvatarID,
		ContinentID:       sub.ContinentID,
		EnduranceDuration: *sub.EnduranceDuration,
		CompletionTime:    sub.CompletionTime,
		RoundsCompleted:   sub.RoundsCompleted,
		TotalTime:         sub.TotalTime,
		Difficulty:        sub.Difficulty,
		CountryCode:       sub.CountryCode,
	}
	return record, ValidateRecord(record)
}

func ValidateRecord(record domain.ScoreRecord) error {
	required := []struct {
		field string
		value string
	}{
		{"playerId", record.PlayerID},
		{"playerName", record.PlayerName},
		{"continentId", record.ContinentID},
		{"catAvatarId", record.CatAvatarID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return newValidationError(r.field, "is required")
		}
	}

	d := record.EnduranceDuration
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return newValidationError("enduranceDuration", "must be a finite number")
	}
	if d < 0 {
		return newValidationError("enduranceDuration", "must not be negative")
	}
	return nil
}

func encodeRecord(record domain.ScoreRecord) (string, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode score record: %w", err)
	}
	return string(b), nil
}

// decodeRecord treats a JSON null as corrupt, the same as unparseable input.
func decodeRecord(raw string) (*domain.ScoreRecord, error) {
	var record *domain.ScoreRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: null record", ErrCorruptRecord)
	}
	return record, nil
}
