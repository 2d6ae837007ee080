package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cat-endurance/internal/db"
	"cat-endurance/internal/ranking"

	"github.com/rs/zerolog"
)

var _ ranking.Store = (*RankingRepository)(nil)

type RankingRepository struct {
	queries *db.Queries
	db      *sql.DB
	inTx    bool
	logger  zerolog.Logger
	now     func() time.Time
}

func NewRankingRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *RankingRepository {
	return &RankingRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
		now:     time.Now,
	}
}

func (r *RankingRepository) ZAdd(ctx context.Context, key, member string, score float64) error {
	err := r.queries.UpsertMember(ctx, db.UpsertMemberParams{
		SetKey:    key,
		Member:    member,
		Score:     score,
		UpdatedAt: r.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert member %s: %w", member, err)
	}
	return nil
}

func (r *RankingRepository) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	score, err := r.queries.GetMemberScore(ctx, key, member)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get score for %s: %w", member, err)
	}
	return score, true, nil
}

func (r *RankingRepository) ZRevRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	params, ok := rangeParams(key, start, stop)
	if !ok {
		return nil, nil
	}
	members, err := r.queries.ListMembersDesc(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (r *RankingRepository) ZCountAbove(ctx context.Context, key string, score float64) (int, error) {
	count, err := r.queries.CountMembersAbove(ctx, key, score)
	if err != nil {
		return 0, fmt.Errorf("failed to count members above %v: %w", score, err)
	}
	return int(count), nil
}

func (r *RankingRepository) ZCard(ctx context.Context, key string) (int, error) {
	count, err := r.queries.CountMembers(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return int(count), nil
}

func (r *RankingRepository) ZRem(ctx context.Context, key string, members ...string) (int, error) {
	removed := 0
	err := r.Atomic(ctx, func(s ranking.Store) error {
		tx := s.(*RankingRepository)
		for _, member := range members {
			n, err := tx.queries.DeleteMember(ctx, key, member)
			if err != nil {
				return fmt.Errorf("failed to delete member %s: %w", member, err)
			}
			removed += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *RankingRepository) ZRemRangeByRank(ctx context.Context, key string, start, stop int) ([]string, error) {
	params, ok := rangeParams(key, start, stop)
	if !ok {
		return nil, nil
	}

	var removed []string
	err := r.Atomic(ctx, func(s ranking.Store) error {
		tx := s.(*RankingRepository)
		members, err := tx.queries.ListMembersAsc(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to list members by rank: %w", err)
		}
		for _, member := range members {
			if _, err := tx.queries.DeleteMember(ctx, key, member); err != nil {
				return fmt.Errorf("failed to delete member %s: %w", member, err)
			}
		}
		removed = members
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *RankingRepository) HSet(ctx context.Context, key, field, value string) error {
	err := r.queries.UpsertField(ctx, db.UpsertFieldParams{
		HashKey:   key,
		Field:     field,
		Value:     value,
		UpdatedAt: r.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to set field %s: %w", field, err)
	}
	return nil
}

func (r *RankingRepository) HGet(ctx context.Context, key, field string) (string, bool, error) {
	value, err := r.queries.GetField(ctx, key, field)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get field %s: %w", field, err)
	}
	return value, true, nil
}

func (r *RankingRepository) HDel(ctx context.Context, key string, fields ...string) (int, error) {
	removed := 0
	err := r.Atomic(ctx, func(s ranking.Store) error {
		tx := s.(*RankingRepository)
		for _, field := range fields {
			n, err := tx.queries.DeleteField(ctx, key, field)
			if err != nil {
				return fmt.Errorf("failed to delete field %s: %w", field, err)
			}
			removed += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *RankingRepository) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := r.queries.ListFields(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	result := make(map[string]string, len(rows))
	for _, row := range rows {
		result[row.Field] = row.Value
	}
	return result, nil
}

func (r *RankingRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Atomic nests by reusing the open transaction.
func (r *RankingRepository) Atomic(ctx context.Context, fn func(ranking.Store) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txRepo := &RankingRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		inTx:    true,
		logger:  r.logger,
		now:     r.now,
	}
	if err := fn(txRepo); err != nil {
		r.logger.Debug().Err(err).Msg("ranking transaction rolled back")
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func rangeParams(key string, start, stop int) (db.ListMembersParams, bool) {
	if start < 0 {
		start = 0
	}
	limit := int64(-1)
	if stop >= 0 {
		if stop < start {
			return db.ListMembersParams{}, false
		}
		limit = int64(stop - start + 1)
	}
	return db.ListMembersParams{SetKey: key, Limit: limit, Offset: int64(start)}, true
}
