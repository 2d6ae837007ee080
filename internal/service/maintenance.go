package service

import (
	"context"
	"sync"
	"time"

	"cat-endurance/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Maintenance sweeps the leaderboard on a fixed interval for as long as the app runs.
type Maintenance struct {
	svc      *LeaderboardService
	interval time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMaintenance(lc fx.Lifecycle, svc *LeaderboardService, cfg *config.Config, logger zerolog.Logger) *Maintenance {
	m := &Maintenance{
		svc:      svc,
		interval: cfg.MaintenanceInterval,
		logger:   logger.With().Str("component", "maintenance").Logger(),
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			m.Start()
			return nil
		},
		OnStop: m.Stop,
	})
	return m
}

func (m *Maintenance) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interval <= 0 {
		m.logger.Info().Msg("periodic maintenance disabled")
		return
	}
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(ctx, m.done)
	m.logger.Info().Dur("interval", m.interval).Msg("periodic maintenance started")
}

func (m *Maintenance) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		m.logger.Info().Msg("periodic maintenance stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Maintenance) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func (m *Maintenance) Sweep(ctx context.Context) {
	start := time.Now()
	report, err := m.svc.RunMaintenance(m.logger.WithContext(ctx))
	if err != nil {
		m.logger.Error().Err(err).Msg("maintenance sweep failed")
	}
	m.logger.Info().
		Int("pruned", report.Pruned).
		Int("corrupted", report.Corrupted).
		Int("orphaned_index", report.Reconcile.OrphanedIndex).
		Int("reindexed", report.Reconcile.Reindexed).
		Dur("duration", time.Since(start)).
		Msg("maintenance sweep completed")
}
