package service

import (
	"context"
	"time"

	"cat-endurance/internal/domain"

	"golang.org/x/sync/errgroup"
)

type seedPlayer struct {
	id         string
	name       string
	duration   float64
	cat        string
	continent  string
	age        time.Duration
	difficulty domain.Difficulty
}

var seedPlayers = []seedPlayer{
	{"test_player_1", "CatMaster", 180, "1", "AS", 1 * time.Hour, domain.DifficultyHard},
	{"test_player_2", "WaterWhiskers", 150, "2", "EU", 2 * time.Hour, domain.DifficultyMedium},
	{"test_player_3", "BubblePaws", 120, "3", "NA", 3 * time.Hour, domain.DifficultyMedium},
	{"test_player_4", "SoapyTail", 90, "4", "SA", 4 * time.Hour, domain.DifficultyEasy},
	{"test_player_5", "CleanKitty", 75, "5", "AF", 5 * time.Hour, domain.DifficultyEasy},
	{"test_player_6", "ShowerCat", 60, "6", "OC", 6 * time.Hour, domain.DifficultyMedium},
}

// SeedTestData submits six fixed fictitious players, backdated an hour apart. Individual
// failures are logged and left out of the results.
func (s *LeaderboardService) SeedTestData(ctx context.Context) []domain.SubmitResult {
	logger := s.log(ctx)
	now := s.now()

	results := make([]*domain.SubmitResult, len(seedPlayers))
	var g errgroup.Group
	for i, p := range seedPlayers {
		g.Go(func() error {
			record := domain.ScoreRecord{
				PlayerID:          p.id,
				PlayerName:        p.name,
				CatAvatarID:       p.cat,
				ContinentID:       p.continent,
				EnduranceDuration: p.duration,
				CompletedAt:       now.Add(-p.age).UnixMilli(),
				Difficulty:        p.difficulty,
			}
			result, err := s.submit(ctx, record)
			if err != nil {
				logger.Error().Err(err).Str("player_name", p.name).Msg("failed to add test player")
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.SubmitResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	logger.Info().Int("added", len(out)).Msg("test players added")
	return out
}
