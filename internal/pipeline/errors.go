package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when an aggregation is attempted over zero records.
var ErrEmptyInput = errors.New("no records to aggregate")

// Stage names used in StageError, StageMetrics and log lines.
const (
	StageIngest    = "ingest"
	StageAggregate = "aggregate"
	StageExport    = "export"
)

// StageError records which stage of a run failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
