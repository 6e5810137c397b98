package pipeline

import (
	"context"
	"fmt"
	"time"

	"stock-pipeline/internal/config"
	"stock-pipeline/internal/model"
	"stock-pipeline/internal/store"
)

// KeyFunc picks the store key an aggregation is written under.
type KeyFunc func(model.Aggregation) string

// FixedKey always returns key.
func FixedKey(key string) KeyFunc {
	return func(model.Aggregation) string { return key }
}

// DateKey returns "<prefix>:<YYYY-MM-DD>" for the aggregation's date.
func DateKey(prefix string) KeyFunc {
	return func(agg model.Aggregation) string {
		return prefix + ":" + agg.Date.Format(time.DateOnly)
	}
}

// KeyFor builds the KeyFunc for a configured key mode.
func KeyFor(mode, key string) (KeyFunc, error) {
	switch mode {
	case config.KeyFixed, "":
		return FixedKey(key), nil
	case config.KeyDate:
		return DateKey(key), nil
	default:
		return nil, fmt.Errorf("unknown key mode: %s", mode)
	}
}

// Export hands one aggregation to sink under key. A positive timeout bounds the write.
func Export(ctx context.Context, sink store.Sink, key string, agg model.Aggregation, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := sink.Put(ctx, key, agg); err != nil {
		return fmt.Errorf("failed to write aggregation to %s: %w", key, err)
	}
	return nil
}
