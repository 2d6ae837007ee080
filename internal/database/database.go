package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"cat-endurance/internal/config"
	"cat-endurance/internal/constants"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// driverName is go-sqlite3 plus the connection pragmas the DSN cannot carry.
const driverName = "sqlite3_ranking"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			_, err := conn.Exec("PRAGMA temp_store = MEMORY", nil)
			return err
		},
	})
}

// New opens the ranking database and brings its schema up to date.
func New(cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	logger.Info().Str("path", cfg.DBPath).Msg("opening ranking store")

	db, err := sql.Open(driverName, dsn(cfg.DBPath))
	if err != nil {
		logger.Error().Err(err).Msg("failed to open ranking store")
		return nil, fmt.Errorf("failed to open ranking store: %w", err)
	}

	db.SetMaxOpenConns(constants.DBMaxOpenConns)
	db.SetMaxIdleConns(constants.DBMaxIdleConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()

	if err := checkJournal(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(ctx, db, logger); err != nil {
		logger.Error().Err(err).Msg("failed to migrate ranking store")
		db.Close()
		return nil, fmt.Errorf("failed to migrate ranking store: %w", err)
	}

	logger.Info().Msg("ranking store ready")
	return db, nil
}

// dsn puts the per-connection settings on the DSN so every pooled connection gets them,
// not just the first one a PRAGMA statement happens to run on.
func dsn(path string) string {
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	params.Set("_txlock", "immediate")
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_cache_size", "-64000")

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}

// checkJournal fails when the file could not be switched to WAL. In-memory databases report
// "memory" and are allowed through.
func checkJournal(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to read journal mode: %w", err)
	}
	mode = strings.ToLower(mode)
	if mode != "wal" && mode != "memory" {
		return fmt.Errorf("ranking store journal mode is %q, want wal", mode)
	}
	logger.Debug().Str("journal_mode", mode).Msg("journal mode checked")
	return nil
}

// migrate runs the embedded migrations through a goose provider, which keeps no global
// state and so is safe when several stores open at once.
func migrate(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		logger.Info().
			Int64("version", res.Source.Version).
			Dur("duration", res.Duration).
			Msg("migration applied")
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info().Int64("version", version).Int("applied", len(results)).Msg("migrations completed")
	return nil
}
