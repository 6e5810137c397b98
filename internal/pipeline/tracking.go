package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// StageMetrics tracks metrics for individual pipeline stages
type StageMetrics struct {
	Name             string        `json:"name"`
	StartTime        time.Time     `json:"start_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int           `json:"records_processed"`
	Status           string        `json:"status"` // "completed", "failed"
}

// runTracker logs stage lifecycle lines for one run and collects their metrics.
type runTracker struct {
	runID  string
	logger *slog.Logger
	stages []StageMetrics
}

func newRunTracker(runID string, logger *slog.Logger) *runTracker {
	return &runTracker{
		runID:  runID,
		logger: logger.With(slog.String("run_id", runID)),
	}
}

// track runs fn as the named stage. fn reports how many records it handled.
func (t *runTracker) track(ctx context.Context, stage string, fn func() (int, error)) error {
	start := time.Now()
	t.logger.DebugContext(ctx, "stage started", slog.String("stage", stage))

	n, err := fn()

	m := StageMetrics{
		Name:             stage,
		StartTime:        start,
		Duration:         time.Since(start),
		RecordsProcessed: n,
		Status:           "completed",
	}
	if err != nil {
		m.Status = "failed"
		t.stages = append(t.stages, m)
		t.logger.ErrorContext(ctx, "stage failed",
			slog.String("stage", stage),
			slog.Int64("duration_ms", m.Duration.Milliseconds()),
			slog.Any("error", err),
		)
		return &StageError{Stage: stage, Err: err}
	}

	t.stages = append(t.stages, m)
	t.logger.InfoContext(ctx, "stage completed",
		slog.String("stage", stage),
		slog.Int("records", n),
		slog.Int64("duration_ms", m.Duration.Milliseconds()),
	)
	return nil
}
