// Package errors provides error handling for canopy.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for the CLI
//
// Usage:
//
//	if err := dataset.EnsureAbsent(out); err != nil {
//	    return errors.Wrap(err, "cannot start build")
//	}
//
//	if errors.Is(err, errors.ErrCanopyBuildFailure) {
//	    // loosen thresholds and retry
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Mark      = crdb.Mark
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// GetStack returns the reportable stack trace attached to err, if any
var GetStack = crdb.GetReportableStackTrace

// Sentinel errors shared by every package. Wrap them to add context and
// check them with errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = New("not found")

	// ErrInvalidArgument indicates a caller-supplied parameter is out of range
	ErrInvalidArgument = New("invalid argument")

	// ErrOutputExists indicates the output path is already present
	ErrOutputExists = New("output path already exists")

	// ErrClusterDirMissing indicates the canonical cluster directory is absent
	ErrClusterDirMissing = New("cluster directory does not exist")

	// ErrCanopyBuildFailure indicates a clustering round produced no canopies
	ErrCanopyBuildFailure = New("canopy build failure")

	// ErrMeasureUnconfigured indicates the distance measure could not be resolved
	ErrMeasureUnconfigured = New("distance measure not configured")

	// ErrNoClusters indicates a cluster directory holds no canopy files
	ErrNoClusters = New("no clusters found")

	// ErrCodec indicates a canopy record could not be encoded or decoded
	ErrCodec = New("codec error")
)

// IsInvalidArgument checks if an error is or wraps ErrInvalidArgument
func IsInvalidArgument(err error) bool {
	return err != nil && Is(err, ErrInvalidArgument)
}

// NewInvalidArgumentf creates an invalid-argument error with a formatted message
func NewInvalidArgumentf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidArgument)
}

// NewCodecErrorf creates a codec error with a formatted message
func NewCodecErrorf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrCodec)
}
