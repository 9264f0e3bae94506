package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.BarRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

var _ ports.BarRepository = (*Repository)(nil)

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required: %w", ports.ErrConfigurationError)
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
			cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
			return nil, err
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// One connection keeps ":memory:" databases alive and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Bar cache ready", ports.Fields{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS bar_fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		ticker TEXT NOT NULL,
		interval TEXT NOT NULL,
		range_key TEXT NOT NULL,
		fetched_at TIMESTAMP NOT NULL,
		UNIQUE (source, ticker, interval, range_key)
	);

	CREATE TABLE IF NOT EXISTS bars (
		fetch_id INTEGER NOT NULL REFERENCES bar_fetches(id) ON DELETE CASCADE,
		open_time TIMESTAMP NOT NULL,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (fetch_id, open_time)
	);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Debug(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveBars replaces the bars cached for q inside a single transaction.
func (r *Repository) SaveBars(ctx context.Context, q ports.BarQuery, bars []*domain.Bar, fetchedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const upsertFetch = `
	INSERT INTO bar_fetches (source, ticker, interval, range_key, fetched_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (source, ticker, interval, range_key) DO UPDATE SET fetched_at = excluded.fetched_at`
	if _, err := tx.ExecContext(ctx, upsertFetch, q.Source, q.Ticker, q.Interval, q.Range, fetchedAt.UTC()); err != nil {
		return fmt.Errorf("failed to record fetch for %s: %w: %w", q.Ticker, ports.ErrUpdateFailed, err)
	}

	var fetchID int64
	const selectID = `SELECT id FROM bar_fetches WHERE source = ? AND ticker = ? AND interval = ? AND range_key = ?`
	if err := tx.QueryRowContext(ctx, selectID, q.Source, q.Ticker, q.Interval, q.Range).Scan(&fetchID); err != nil {
		return fmt.Errorf("failed to resolve fetch id for %s: %w: %w", q.Ticker, ports.ErrQueryFailed, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bars WHERE fetch_id = ?`, fetchID); err != nil {
		return fmt.Errorf("failed to clear cached bars for %s: %w: %w", q.Ticker, ports.ErrUpdateFailed, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO bars (fetch_id, open_time, symbol, interval, open, high, low, close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare bar insert: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if b == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, fetchID, b.OpenTime.UTC(), b.Symbol, b.Interval, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("failed to insert bar %s for %s: %w: %w", b.OpenTime.Format(time.RFC3339), q.Ticker, ports.ErrUpdateFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cached bars for %s: %w: %w", q.Ticker, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Bars cached", ports.Fields{"ticker": q.Ticker, "interval": q.Interval, "range": q.Range, "count": len(bars)})
	return nil
}

// FindBars returns the cached bars for q ordered by open time.
func (r *Repository) FindBars(ctx context.Context, q ports.BarQuery) ([]*domain.Bar, time.Time, error) {
	var fetchID int64
	var fetchedAt time.Time
	const selectFetch = `
	SELECT id, fetched_at FROM bar_fetches
	WHERE source = ? AND ticker = ? AND interval = ? AND range_key = ?`
	err := r.db.QueryRowContext(ctx, selectFetch, q.Source, q.Ticker, q.Interval, q.Range).Scan(&fetchID, &fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "No cached bars", ports.Fields{"ticker": q.Ticker, "interval": q.Interval, "range": q.Range})
			return nil, time.Time{}, nil // Not an error, just not cached
		}
		return nil, time.Time{}, fmt.Errorf("failed to query cached fetch for %s: %w: %w", q.Ticker, ports.ErrQueryFailed, err)
	}

	const selectBars = `
	SELECT open_time, symbol, interval, open, high, low, close, volume
	FROM bars WHERE fetch_id = ? ORDER BY open_time ASC`
	rows, err := r.db.QueryContext(ctx, selectBars, fetchID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query cached bars for %s: %w: %w", q.Ticker, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	bars := make([]*domain.Bar, 0)
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan cached bar: %w: %w", ports.ErrQueryFailed, err)
		}
		bars = append(bars, bar)
	}
	if err = rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("error iterating cached bar rows: %w: %w", ports.ErrQueryFailed, err)
	}
	return bars, fetchedAt, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBar(s scanner) (*domain.Bar, error) {
	b := &domain.Bar{}
	if err := s.Scan(&b.OpenTime, &b.Symbol, &b.Interval, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
		return nil, err
	}
	b.OpenTime = b.OpenTime.UTC()
	return b, nil
}
