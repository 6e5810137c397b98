package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-pipeline/internal/logger"
)

// Runs against a real database only when TEST_DATABASE_URL is set.
func TestPostgresSink(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	sink, err := NewPostgresSink(ctx, dsn, logger.Discard())
	require.NoError(t, err)
	defer sink.Close()

	key := "test:" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = sink.db.Exec(context.Background(), `DELETE FROM aggregations WHERE key = $1`, key)
	})

	agg := testAggregation(t)
	require.NoError(t, sink.Put(ctx, key, agg))
	agg.High = 16
	require.NoError(t, sink.Put(ctx, key, agg))

	got, err := sink.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 16.0, got.High)
	assert.True(t, agg.Date.Equal(got.Date))

	_, err = sink.Get(ctx, "test:missing:"+uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
