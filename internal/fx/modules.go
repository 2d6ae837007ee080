package fx

import (
	"context"
	"database/sql"
	"time"

	"cat-endurance/internal/config"
	"cat-endurance/internal/database"
	"cat-endurance/internal/db"
	"cat-endurance/internal/game"
	"cat-endurance/internal/logger"
	"cat-endurance/internal/ranking"
	"cat-endurance/internal/repository"
	"cat-endurance/internal/server"
	"cat-endurance/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

// ProvideDatabase opens the store and closes it when the app stops.
func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	sqlDB, err := database.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := sqlDB.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
				return err
			}
			return nil
		},
	})
	return sqlDB, nil
}

// ProvideGameEngine is shared by every game request, so its random source is locked.
func ProvideGameEngine() *game.Engine {
	return game.NewEngine(game.DefaultConfig(), game.NewLockedRandom(time.Now().UnixNano()))
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(ProvideDatabase),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(fx.Annotate(repository.NewRankingRepository, fx.As(new(ranking.Store)))),
	// svc
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(service.NewMaintenance),
	fx.Provide(ProvideGameEngine),
	// server
	fx.Provide(server.NewLeaderboardServer),
	fx.Provide(server.NewGameServer),
)
