package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"stock-pipeline/internal/config"
	"stock-pipeline/internal/model"
)

// ErrNotFound is returned by Get when no aggregation is stored under a key.
var ErrNotFound = errors.New("key not found")

// Sink is an external key-value store that receives the final aggregation.
type Sink interface {
	Put(ctx context.Context, key string, agg model.Aggregation) error
	Close() error
}

// Open builds the sink selected by cfg.Type.
func Open(ctx context.Context, cfg config.SinkConfig, logger *slog.Logger) (Sink, error) {
	switch cfg.Type {
	case config.SinkNoop, "":
		return NewNoopSink(logger), nil
	case config.SinkRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisSink(client, cfg.Redis.TTL, logger), nil
	case config.SinkSQLite:
		return NewSQLiteSink(cfg.SQLite.Path, logger)
	case config.SinkPostgres:
		return NewPostgresSink(ctx, cfg.Postgres.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}

// NoopSink accepts every aggregation and stores nothing.
type NoopSink struct {
	logger *slog.Logger
}

func NewNoopSink(logger *slog.Logger) *NoopSink { return &NoopSink{logger: orDefault(logger)} }

func (n *NoopSink) Put(ctx context.Context, key string, agg model.Aggregation) error {
	n.logger.DebugContext(ctx, "noop sink discarded aggregation",
		slog.String("key", key), slog.Float64("high", agg.High))
	return nil
}

func (n *NoopSink) Close() error { return nil }

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func encode(agg model.Aggregation) ([]byte, error) {
	b, err := json.Marshal(agg)
	if err != nil {
		return nil, fmt.Errorf("encode aggregation: %w", err)
	}
	return b, nil
}

func decode(b []byte) (model.Aggregation, error) {
	var agg model.Aggregation
	if err := json.Unmarshal(b, &agg); err != nil {
		return model.Aggregation{}, fmt.Errorf("decode aggregation: %w", err)
	}
	return agg, nil
}
