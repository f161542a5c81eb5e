package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edubyte/eubyte-backend/internal"
	"github.com/edubyte/eubyte-backend/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// SQLiteStore persists the ledger in a SQLite file through the pure-Go modernc driver.
type SQLiteStore struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and applies the
// embedded migrations.
func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = slog.Default()
	}
	dsn := path + "?_time_format=sqlite&_pragma=busy_timeout(5000)"
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := applyMigrations(db.DB, path, log); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Ledger database ready", "path", path)
	return &SQLiteStore{db: db, log: log.With("component", "store")}, nil
}

func applyMigrations(db *sql.DB, name string, log *slog.Logger) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{DatabaseName: name})
	if err != nil {
		return fmt.Errorf("failed to create sqlite database driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("No database migrations to apply")
			return nil
		}
		return err
	}
	log.Info("Database migrations applied")
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, ex internal.Exchange) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	ex.CreatedAt = ex.CreatedAt.UTC()

	const q = `INSERT INTO exchanges (kind, bot, model, status, latency_ms, error, created_at)
		VALUES (:kind, :bot, :model, :status, :latency_ms, :error, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, q, ex); err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]internal.Exchange, error) {
	const q = `SELECT id, kind, bot, model, status, latency_ms, error, created_at
		FROM exchanges ORDER BY id DESC LIMIT ?`
	var out []internal.Exchange
	if err := s.db.SelectContext(ctx, &out, q, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("select exchanges: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune exchanges: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune exchanges: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	s.log.Info("Database connection closed")
	return nil
}
