package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stock-pipeline/internal/model"
)

var _ Sink = (*SQLiteSink)(nil)

// SQLiteSink keeps aggregations in a key/value table of a local SQLite file.
type SQLiteSink struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// NewSQLiteSink opens (or creates) the database at dbPath and its table.
func NewSQLiteSink(dbPath string, logger *slog.Logger) (*SQLiteSink, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	logger = orDefault(logger)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	table := `
	CREATE TABLE IF NOT EXISTS aggregations (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := db.Exec(table); err != nil {
		db.Close()
		return nil, fmt.Errorf("create aggregations table: %w", err)
	}

	logger.Info("sqlite sink opened", slog.String("path", dbPath))
	return &SQLiteSink{db: db, logger: logger}, nil
}

// Put upserts the JSON form of agg under key.
func (s *SQLiteSink) Put(ctx context.Context, key string, agg model.Aggregation) error {
	payload, err := encode(agg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO aggregations (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(payload), now)
	if err != nil {
		return fmt.Errorf("save aggregation: %w", err)
	}
	return nil
}

// Get fetches the aggregation stored under key.
func (s *SQLiteSink) Get(ctx context.Context, key string) (model.Aggregation, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM aggregations WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Aggregation{}, ErrNotFound
	}
	if err != nil {
		return model.Aggregation{}, err
	}
	return decode([]byte(value))
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
