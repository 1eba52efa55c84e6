// Package ledger records clustering runs, their rounds and their counters in
// the sqlite database opened by package db.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/canopy/errors"
)

// Status is the lifecycle state of a run
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsValidStatus returns true if s names a Status
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusQueued, StatusRunning, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Kind is what a run did
type Kind string

const (
	KindBuild    Kind = "build"
	KindClassify Kind = "classify"
)

// Run is one invocation of build or classify
type Run struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Status     Status          `json:"status"`
	Input      string          `json:"input"`
	Output     string          `json:"output"`
	Config     json.RawMessage `json:"config,omitempty"` // effective settings at start
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewRun creates a queued run with a fresh id. settings is stored as JSON.
func NewRun(kind Kind, input, output string, settings any) (*Run, error) {
	if kind != KindBuild && kind != KindClassify {
		return nil, errors.NewInvalidArgumentf("unknown run kind %q", kind)
	}

	var cfg json.RawMessage
	if settings != nil {
		data, err := json.Marshal(settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal run settings")
		}
		cfg = data
	}

	now := time.Now().UTC()
	return &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusQueued,
		Input:     input,
		Output:    output,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Start marks the run as running
func (r *Run) Start() {
	now := time.Now().UTC()
	r.Status = StatusRunning
	r.StartedAt = &now
	r.UpdatedAt = now
}

// Complete marks the run as completed
func (r *Run) Complete() {
	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.FinishedAt = &now
	r.UpdatedAt = now
}

// Fail marks the run as failed with an error message
func (r *Run) Fail(err error) {
	now := time.Now().UTC()
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.FinishedAt = &now
	r.UpdatedAt = now
}

// Duration is the wall time between start and finish, or zero while the
// run has not finished
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// Round is the ledger row of one finished clustering round
type Round struct {
	RunID       string  `json:"run_id"`
	Round       int     `json:"round"`
	T1          float64 `json:"t1"`
	T2          float64 `json:"t2"`
	Parallelism int     `json:"parallelism"`
	Canopies    int     `json:"canopies"`
	MeanGroup   float64 `json:"mean_group"`
	MaxGroup    int     `json:"max_group"`
}
