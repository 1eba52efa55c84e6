package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings.
const (
	FieldRunID       = "run_id"
	FieldRound       = "round"
	FieldT1          = "t1"
	FieldT2          = "t2"
	FieldParallelism = "parallelism"
	FieldPartition   = "partition"
	FieldCanopies    = "canopies"
	FieldPoints      = "points"
	FieldRejected    = "rejected"
	FieldMeasure     = "measure"
	FieldPath        = "path"
	FieldDurationMS  = "duration_ms"
	FieldError       = "error"
)

type contextKey string

const runIDKey contextKey = "logger_run_id"

// WithRunID adds a run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	return fields
}

// LoggerFromContext returns the global logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	job := mapred.NewJob(runID, logger.ComponentLogger("build"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
