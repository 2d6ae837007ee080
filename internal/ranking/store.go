// Package ranking defines the sorted-set and hash primitives the leaderboard is built on.
package ranking

import "context"

// Store mirrors the subset of a sorted-set key-value store the leaderboard needs.
//
// Ranges are zero-based and inclusive; a negative stop means "through the last member".
// Reverse ranges order by score descending, ties by member descending. Forward ranges
// are the exact mirror.
type Store interface {
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZScore(ctx context.Context, key, member string) (score float64, ok bool, err error)
	ZRevRange(ctx context.Context, key string, start, stop int) ([]string, error)
	// ZCountAbove counts members with a score strictly greater than score.
	ZCountAbove(ctx context.Context, key string, score float64) (int, error)
	ZCard(ctx context.Context, key string) (int, error)
	ZRem(ctx context.Context, key string, members ...string) (int, error)
	// ZRemRangeByRank removes members by ascending rank and returns them.
	ZRemRangeByRank(ctx context.Context, key string, start, stop int) ([]string, error)

	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (value string, ok bool, err error)
	HDel(ctx context.Context, key string, fields ...string) (int, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	Ping(ctx context.Context) error

	// Atomic runs fn against a store view whose writes commit together or not at all.
	Atomic(ctx context.Context, fn func(Store) error) error
}
