package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stock-pipeline/internal/model"
)

var _ Sink = (*PostgresSink)(nil)

// PostgresSink keeps aggregations in a key/value table in Postgres.
type PostgresSink struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresSink connects to dsn and makes sure the aggregations table exists.
func NewPostgresSink(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS aggregations (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := pool.Exec(ctx, query); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create aggregations table: %w", err)
	}

	return &PostgresSink{db: pool, logger: orDefault(logger)}, nil
}

// Put upserts the JSON form of agg under key.
func (s *PostgresSink) Put(ctx context.Context, key string, agg model.Aggregation) error {
	payload, err := encode(agg)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO aggregations (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query, key, string(payload)); err != nil {
		s.logger.ErrorContext(ctx, "failed to save aggregation", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}

// Get fetches the aggregation stored under key.
func (s *PostgresSink) Get(ctx context.Context, key string) (model.Aggregation, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM aggregations WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Aggregation{}, ErrNotFound
	}
	if err != nil {
		return model.Aggregation{}, err
	}
	return decode([]byte(value))
}

func (s *PostgresSink) Close() error {
	s.db.Close()
	return nil
}
