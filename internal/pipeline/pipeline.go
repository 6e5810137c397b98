package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stock-pipeline/internal/model"
	"stock-pipeline/internal/store"
)

// Options configures a single pipeline run.
type Options struct {
	Input       string        // source location, a local path or http(s) URL
	Sink        store.Sink    // receives the aggregation
	Key         KeyFunc       // defaults to FixedKey("stocks:max_high")
	SinkTimeout time.Duration // bounds the sink write when > 0
	Logger      *slog.Logger
}

// Result describes a completed run.
type Result struct {
	RunID       string            `json:"run_id"`
	Records     int               `json:"records"`
	Aggregation model.Aggregation `json:"aggregation"`
	Key         string            `json:"key"`
	Stages      []StageMetrics    `json:"stages"`
	Duration    time.Duration     `json:"duration"`
}

// ------------------- Pipeline Runner -------------------

// Run reads the input, aggregates the day with the maximum high and writes it
// to the sink. Stages run in order and any failure ends the run with a *StageError.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Sink == nil {
		return nil, errors.New("pipeline: nil sink")
	}
	if opts.Key == nil {
		opts.Key = FixedKey("stocks:max_high")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	start := time.Now()
	runID := uuid.New().String()
	tracker := newRunTracker(runID, opts.Logger)
	tracker.logger.InfoContext(ctx, "starting pipeline", slog.String("input", opts.Input))

	var (
		records []model.StockRecord
		agg     model.Aggregation
		key     string
	)

	// --- INGESTION STAGE ---
	err := tracker.track(ctx, StageIngest, func() (int, error) {
		var err error
		records, err = ReadStocks(ctx, opts.Input)
		return len(records), err
	})
	if err != nil {
		return nil, err
	}

	// --- AGGREGATION STAGE ---
	err = tracker.track(ctx, StageAggregate, func() (int, error) {
		var err error
		agg, err = MaxHigh(records)
		return len(records), err
	})
	if err != nil {
		return nil, err
	}

	// --- EXPORT STAGE ---
	err = tracker.track(ctx, StageExport, func() (int, error) {
		key = opts.Key(agg)
		if err := Export(ctx, opts.Sink, key, agg, opts.SinkTimeout); err != nil {
			return 0, err
		}
		return 1, nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       runID,
		Records:     len(records),
		Aggregation: agg,
		Key:         key,
		Stages:      tracker.stages,
		Duration:    time.Since(start),
	}
	tracker.logger.InfoContext(ctx, "pipeline completed",
		slog.Int("records", res.Records),
		slog.String("key", key),
		slog.Time("max_high_date", agg.Date),
		slog.Float64("max_high", agg.High),
		slog.Int64("duration_ms", res.Duration.Milliseconds()),
	)
	return res, nil
}
