package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cat-endurance/internal/config"
	"cat-endurance/internal/constants"
	"cat-endurance/internal/domain"
	"cat-endurance/internal/ranking"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type LeaderboardService struct {
	store        ranking.Store
	logger       zerolog.Logger
	maxSize      int
	defaultLimit int
	now          func() time.Time
}

func NewLeaderboardService(store ranking.Store, cfg *config.Config, logger zerolog.Logger) *LeaderboardService {
	s := &LeaderboardService{
		store:        store,
		logger:       logger,
		maxSize:      constants.LeaderboardMaxSize,
		defaultLimit: constants.DefaultLeaderboardLimit,
		now:          time.Now,
	}
	if cfg != nil {
		if cfg.LeaderboardMaxSize > 0 {
			s.maxSize = cfg.LeaderboardMaxSize
		}
		if cfg.DefaultLimit > 0 {
			s.defaultLimit = cfg.DefaultLimit
		}
	}
	return s
}

// log prefers the request scoped logger carried in ctx.
func (s *LeaderboardService) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func (s *LeaderboardService) SubmitScore(ctx context.Context, record domain.ScoreRecord) (*domain.SubmitResult, error) {
	record.CompletedAt = s.now().UnixMilli()
	return s.submit(ctx, record)
}

// submit persists record as is; the hash write and index upsert commit together.
func (s *LeaderboardService) submit(ctx context.Context, record domain.ScoreRecord) (*domain.SubmitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	logger := s.log(ctx)

	if err := ValidateRecord(record); err != nil {
		logger.Warn().Err(err).Str("player_id", record.PlayerID).Msg("rejected score submission")
		return nil, err
	}

	logger.Info().
		Str("player_id", record.PlayerID).
		Str("player_name", record.PlayerName).
		Str("continent_id", record.ContinentID).
		Float64("endurance_duration", record.EnduranceDuration).
		Msg("submitting score")

	payload, err := encodeRecord(record)
	if err != nil {
		return nil, err
	}

	err = s.store.Atomic(ctx, func(tx ranking.Store) error {
		if err := tx.HSet(ctx, constants.PlayerScoresKey, record.PlayerID, payload); err != nil {
			return err
		}
		return tx.ZAdd(ctx, constants.LeaderboardKey, record.PlayerID, record.EnduranceDuration)
	})
	if err != nil {
		logger.Error().Err(err).Str("player_id", record.PlayerID).Msg("failed to store score")
		return nil, fmt.Errorf("failed to store score: %w", err)
	}

	rank := s.PlayerRank(ctx, record.PlayerID)
	logger.Info().Str("player_id", record.PlayerID).Int("rank", rank).Msg("score submitted")

	return &domain.SubmitResult{
		Success:           true,
		Rank:              rank,
		EnduranceDuration: record.EnduranceDuration,
		Message:           fmt.Sprintf("Score submitted successfully. Current rank: %d", rank),
	}, nil
}

// PlayerRank returns one more than the number of strictly higher scores, so tied players
// share a rank and the next distinct score skips ahead. Unranked players get -1.
func (s *LeaderboardService) PlayerRank(ctx context.Context, playerID string) int {
	logger := s.log(ctx)

	score, ok, err := s.store.ZScore(ctx, constants.LeaderboardKey, playerID)
	if err != nil {
		logger.Error().Err(err).Str("player_id", playerID).Msg("failed to get player score")
		return -1
	}
	if !ok {
		logger.Debug().Str("player_id", playerID).Msg("player not found in leaderboard")
		return -1
	}

	higher, err := s.store.ZCountAbove(ctx, constants.LeaderboardKey, score)
	if err != nil {
		logger.Error().Err(err).Str("player_id", playerID).Msg("failed to count higher scores")
		return -1
	}
	return higher + 1
}

// Leaderboard filters the global top limit window by region without backfilling, so a
// filtered board can hold fewer than limit entries. Store failures yield an empty board.
func (s *LeaderboardService) Leaderboard(ctx context.Context, limit int, continentID string) domain.LeaderboardData {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	logger := s.log(ctx)
	if limit <= 0 {
		limit = s.defaultLimit
	}

	data, err := s.leaderboard(ctx, limit, continentID)
	if err != nil {
		logger.Error().Err(err).Str("continent_id", continentID).Int("limit", limit).Msg("failed to get leaderboard")
		return emptyLeaderboard(continentID, s.now())
	}

	logger.Debug().
		Str("continent_id", continentID).
		Int("entries", len(data.Entries)).
		Int("total_players", data.TotalPlayers).
		Msg("leaderboard built")
	return data
}

func (s *LeaderboardService) leaderboard(ctx context.Context, limit int, continentID string) (domain.LeaderboardData, error) {
	logger := s.log(ctx)

	ids, err := s.store.ZRevRange(ctx, constants.LeaderboardKey, 0, limit-1)
	if err != nil {
		return domain.LeaderboardData{}, err
	}

	records, corrupt, err := s.loadRecords(ctx, ids)
	if err != nil {
		return domain.LeaderboardData{}, err
	}
	s.purgeFields(ctx, corrupt)

	entries := make([]domain.LeaderboardEntry, 0, len(records))
	for i, record := range records {
		if record == nil {
			continue
		}
		if continentID != "" && record.ContinentID != continentID {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{ScoreRecord: *record, Rank: len(entries) + 1})
		logger.Trace().
			Int("rank", len(entries)).
			Str("player_id", ids[i]).
			Float64("endurance_duration", record.EnduranceDuration).
			Msg("leaderboard entry")
	}

	total := len(entries)
	if continentID == "" {
		total, err = s.store.ZCard(ctx, constants.LeaderboardKey)
		if err != nil {
			return domain.LeaderboardData{}, err
		}
	}

	return domain.LeaderboardData{
		Entries:      entries,
		TotalPlayers: total,
		LastUpdated:  s.now().UnixMilli(),
		ContinentID:  continentID,
	}, nil
}

// loadRecords fetches hash records for ids in parallel and keeps their order. Missing
// records come back nil; undecodable ones are nil and listed in corrupt.
func (s *LeaderboardService) loadRecords(ctx context.Context, ids []string) ([]*domain.ScoreRecord, []string, error) {
	logger := s.log(ctx)

	records := make([]*domain.ScoreRecord, len(ids))
	bad := make([]bool, len(ids))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.RecordLoadConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			raw, ok, err := s.store.HGet(gCtx, constants.PlayerScoresKey, id)
			if err != nil {
				return err
			}
			if !ok {
				logger.Warn().Str("player_id", id).Msg("no player data found for ranked player")
				return nil
			}
			record, err := decodeRecord(raw)
			if err != nil {
				logger.Warn().Err(err).Str("player_id", id).Msg("invalid player data, skipping")
				bad[i] = true
				return nil
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load player records: %w", err)
	}

	var corrupt []string
	for i, isBad := range bad {
		if isBad {
			corrupt = append(corrupt, ids[i])
		}
	}
	return records, corrupt, nil
}

// purgeFields drops undecodable hash records; failures are only logged.
func (s *LeaderboardService) purgeFields(ctx context.Context, fields []string) {
	if len(fields) == 0 {
		return
	}
	if _, err := s.store.HDel(ctx, constants.PlayerScoresKey, fields...); err != nil {
		s.log(ctx).Warn().Err(err).Strs("player_ids", fields).Msg("failed to clean up invalid player data")
		return
	}
	s.log(ctx).Info().Strs("player_ids", fields).Msg("cleaned up invalid player data")
}

func (s *LeaderboardService) ContinentStats(ctx context.Context) []domain.ContinentStats {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	logger := s.log(ctx)

	all, err := s.store.HGetAll(ctx, constants.PlayerScoresKey)
	if err != nil {
		logger.Error().Err(err).Msg("failed to get continent statistics")
		return []domain.ContinentStats{}
	}

	counts := make(map[string]int)
	var corrupt []string
	for playerID, raw := range all {
		record, err := decodeRecord(raw)
		if err != nil {
			logger.Warn().Err(err).Str("player_id", playerID).Msg("invalid player data, cleaning up")
			corrupt = append(corrupt, playerID)
			continue
		}
		counts[record.ContinentID]++
	}
	slices.Sort(corrupt)
	s.purgeFields(ctx, corrupt)

	stats := make([]domain.ContinentStats, 0, len(counts))
	for _, code := range domain.ContinentCodes {
		count, ok := counts[code]
		if !ok {
			continue
		}
		info, _ := domain.LookupContinent(code)
		stats = append(stats, domain.ContinentStats{
			ContinentID:   code,
			ContinentName: info.Name,
			PlayerCount:   count,
			Flag:          info.Flag,
		})
	}
	// stable keeps the fixed region order among equal counts
	slices.SortStableFunc(stats, func(a, b domain.ContinentStats) int {
		return b.PlayerCount - a.PlayerCount
	})

	logger.Debug().Int("players", len(all)).Int("regions", len(stats)).Msg("continent statistics computed")
	return stats
}

// PlayerBest returns the stored record, which is the latest submission. Nil means none.
func (s *LeaderboardService) PlayerBest(ctx context.Context, playerID string) *domain.ScoreRecord {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	logger := s.log(ctx)

	raw, ok, err := s.store.HGet(ctx, constants.PlayerScoresKey, playerID)
	if err != nil {
		logger.Error().Err(err).Str("player_id", playerID).Msg("failed to get player best score")
		return nil
	}
	if !ok {
		logger.Debug().Str("player_id", playerID).Msg("no best score found")
		return nil
	}

	record, err := decodeRecord(raw)
	if err != nil {
		logger.Warn().Err(err).Str("player_id", playerID).Msg("invalid player data, cleaning up")
		s.purgeFields(ctx, []string{playerID})
		return nil
	}
	return record
}

// CleanupLeaderboard trims the index to the configured size, lowest scores first, and
// drops the pruned players' records with it.
func (s *LeaderboardService) CleanupLeaderboard(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	logger := s.log(ctx)

	var removed []string
	err := s.store.Atomic(ctx, func(tx ranking.Store) error {
		total, err := tx.ZCard(ctx, constants.LeaderboardKey)
		if err != nil {
			return err
		}
		if total <= s.maxSize {
			return nil
		}
		removed, err = tx.ZRemRangeByRank(ctx, constants.LeaderboardKey, 0, total-s.maxSize-1)
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		_, err = tx.HDel(ctx, constants.PlayerScoresKey, removed...)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to clean up leaderboard")
		return 0, fmt.Errorf("failed to clean up leaderboard: %w", err)
	}

	if len(removed) > 0 {
		logger.Info().Int("removed", len(removed)).Int("max_size", s.maxSize).Msg("cleaned up leaderboard")
	}
	return len(removed), nil
}

func (s *LeaderboardService) CleanupCorruptedData(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	logger := s.log(ctx)

	all, err := s.store.HGetAll(ctx, constants.PlayerScoresKey)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read player data for cleanup")
		return 0, fmt.Errorf("failed to read player data: %w", err)
	}

	var corrupt []string
	for playerID, raw := range all {
		if _, err := decodeRecord(raw); err != nil {
			logger.Info().Err(err).Str("player_id", playerID).Msg("removing corrupted data")
			corrupt = append(corrupt, playerID)
		}
	}
	if len(corrupt) == 0 {
		return 0, nil
	}
	slices.Sort(corrupt)

	err = s.store.Atomic(ctx, func(tx ranking.Store) error {
		if _, err := tx.HDel(ctx, constants.PlayerScoresKey, corrupt...); err != nil {
			return err
		}
		_, err := tx.ZRem(ctx, constants.LeaderboardKey, corrupt...)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to remove corrupted data")
		return 0, fmt.Errorf("failed to remove corrupted data: %w", err)
	}

	logger.Info().Int("removed", len(corrupt)).Msg("corrupted data cleanup completed")
	return len(corrupt), nil
}

// Reconcile repairs drift between the index and the hash: index members without a record
// are dropped, and decodable records missing from the index are re-ranked by their stored
// duration. Undecodable records are left to CleanupCorruptedData.
func (s *LeaderboardService) Reconcile(ctx context.Context) (domain.ReconcileReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	logger := s.log(ctx)

	var report domain.ReconcileReport
	err := s.store.Atomic(ctx, func(tx ranking.Store) error {
		members, err := tx.ZRevRange(ctx, constants.LeaderboardKey, 0, -1)
		if err != nil {
			return err
		}
		all, err := tx.HGetAll(ctx, constants.PlayerScoresKey)
		if err != nil {
			return err
		}

		indexed := make(map[string]struct{}, len(members))
		var orphans []string
		for _, member := range members {
			indexed[member] = struct{}{}
			if _, ok := all[member]; !ok {
				orphans = append(orphans, member)
			}
		}
		if len(orphans) > 0 {
			if _, err := tx.ZRem(ctx, constants.LeaderboardKey, orphans...); err != nil {
				return err
			}
		}

		fields := make([]string, 0, len(all))
		for field := range all {
			fields = append(fields, field)
		}
		slices.Sort(fields)

		reindexed := 0
		for _, field := range fields {
			if _, ok := indexed[field]; ok {
				continue
			}
			record, err := decodeRecord(all[field])
			if err != nil {
				continue
			}
			if err := tx.ZAdd(ctx, constants.LeaderboardKey, field, record.EnduranceDuration); err != nil {
				return err
			}
			reindexed++
		}

		report = domain.ReconcileReport{OrphanedIndex: len(orphans), Reindexed: reindexed}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to reconcile leaderboard")
		return domain.ReconcileReport{}, fmt.Errorf("failed to reconcile leaderboard: %w", err)
	}

	if report.OrphanedIndex > 0 || report.Reindexed > 0 {
		logger.Info().
			Int("orphaned_index", report.OrphanedIndex).
			Int("reindexed", report.Reindexed).
			Msg("leaderboard reconciled")
	}
	return report, nil
}

// RunMaintenance purges corrupt records, reconciles, then prunes. Every step runs even
// when an earlier one fails.
func (s *LeaderboardService) RunMaintenance(ctx context.Context) (domain.MaintenanceReport, error) {
	var report domain.MaintenanceReport
	var errs []error

	corrupted, err := s.CleanupCorruptedData(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	report.Corrupted = corrupted

	reconcile, err := s.Reconcile(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	report.Reconcile = reconcile

	pruned, err := s.CleanupLeaderboard(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	report.Pruned = pruned

	return report, errors.Join(errs...)
}

func (s *LeaderboardService) DebugDump(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	logger := s.log(ctx)

	size, err := s.store.ZCard(ctx, constants.LeaderboardKey)
	if err != nil {
		logger.Error().Err(err).Msg("debug dump failed")
		return
	}
	logger.Info().Int("size", size).Msg("leaderboard debug: size")

	ids, err := s.store.ZRevRange(ctx, constants.LeaderboardKey, 0, constants.DebugTopN-1)
	if err != nil {
		logger.Error().Err(err).Msg("debug dump failed")
		return
	}
	for i, id := range ids {
		event := logger.Info().Int("rank", i+1).Str("player_id", id)
		raw, ok, err := s.store.HGet(ctx, constants.PlayerScoresKey, id)
		switch {
		case err != nil:
			event.Err(err).Msg("leaderboard debug: lookup failed")
		case !ok:
			event.Msg("leaderboard debug: no data")
		default:
			record, err := decodeRecord(raw)
			if err != nil {
				event.Msg("leaderboard debug: invalid json")
				continue
			}
			event.
				Str("player_name", record.PlayerName).
				Str("continent_id", record.ContinentID).
				Float64("endurance_duration", record.EnduranceDuration).
				Msg("leaderboard debug: entry")
		}
	}

	for _, stat := range s.ContinentStats(ctx) {
		logger.Info().
			Str("continent_id", stat.ContinentID).
			Int("player_count", stat.PlayerCount).
			Msg("leaderboard debug: continent")
	}
}

func emptyLeaderboard(continentID string, now time.Time) domain.LeaderboardData {
	return domain.LeaderboardData{
		Entries:     []domain.LeaderboardEntry{},
		LastUpdated: now.UnixMilli(),
		ContinentID: continentID,
	}
}
