package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stock-pipeline/internal/config"
	"stock-pipeline/internal/logger"
	"stock-pipeline/internal/pipeline"
	"stock-pipeline/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one pipeline run and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", envOr("CONFIG_PATH", config.DefaultPath), "path to the YAML config file")
	input := fs.String("input", "", "CSV/XLSX path or http(s) URL (overrides input.path)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: pipeline [-config file] [-input location | location]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "pipeline: %v\n", err)
		return 1
	}
	switch {
	case *input != "":
		cfg.Input.Path = *input
	case fs.NArg() > 0:
		cfg.Input.Path = fs.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "pipeline: %v\n", err)
		return 1
	}

	log := logger.New(cfg.Logging, stderr)

	key, err := pipeline.KeyFor(cfg.Sink.KeyMode, cfg.Sink.Key)
	if err != nil {
		log.Error("invalid sink key", slog.Any("error", err))
		return 1
	}

	sink, err := store.Open(ctx, cfg.Sink, log)
	if err != nil {
		log.Error("failed to open sink", slog.String("type", cfg.Sink.Type), slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn("failed to close sink", slog.Any("error", err))
		}
	}()

	res, err := pipeline.Run(ctx, pipeline.Options{
		Input:       cfg.Input.Path,
		Sink:        sink,
		Key:         key,
		SinkTimeout: cfg.Sink.Timeout,
		Logger:      log,
	})
	if err != nil {
		log.Error("pipeline failed", slog.Any("error", err))
		return 1
	}

	enc := json.NewEncoder(stdout)
	if err := enc.Encode(res.Aggregation); err != nil {
		log.Error("failed to write result", slog.Any("error", err))
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
