package repos

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"

	"membersite/internal/config"
	"membersite/internal/migrations"
)

// OpenDB connects to the configured store, retrying the initial ping with
// exponential backoff, and applies pending migrations.
func OpenDB(ctx context.Context, cfg config.StoreConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, dsn(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// one connection: sqlite serializes writers anyway, and ":memory:"
		// databases are per-connection
		db.SetMaxOpenConns(1)
	}

	attempts := cfg.ConnAttempts
	if attempts == 0 {
		attempts = 1
	}
	backoff := cfg.ConnBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	b := retry.WithMaxRetries(attempts-1, retry.NewExponential(backoff))
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: connect %s: %w", cfg.Driver, err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func dsn(cfg config.StoreConfig) string {
	if cfg.Driver == "sqlite" && cfg.DSN != ":memory:" {
		return "file:" + cfg.DSN + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	return cfg.DSN
}

// Migrate applies every embedded migration not yet recorded in the database.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	dialect := goose.DialectSQLite3
	if db.DriverName() == "pgx" {
		dialect = goose.DialectPostgres
	}
	p, err := goose.NewProvider(dialect, db.DB, migrations.FS)
	if err != nil {
		return fmt.Errorf("store: migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}
