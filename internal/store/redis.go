package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"stock-pipeline/internal/model"
)

var _ Sink = (*RedisSink)(nil)

// RedisSink stores each aggregation as a JSON string value.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisSink wraps client. A zero ttl keeps keys without expiry.
func NewRedisSink(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisSink {
	return &RedisSink{
		client: client,
		ttl:    ttl,
		logger: orDefault(logger),
	}
}

// Put overwrites key with the JSON form of agg.
func (s *RedisSink) Put(ctx context.Context, key string, agg model.Aggregation) error {
	payload, err := encode(agg)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.ErrorContext(ctx, "failed to write aggregation to redis", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}

// Get reads back the aggregation stored under key.
func (s *RedisSink) Get(ctx context.Context, key string) (model.Aggregation, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Aggregation{}, ErrNotFound
	}
	if err != nil {
		return model.Aggregation{}, err
	}
	return decode(b)
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
