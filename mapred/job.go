package mapred

import (
	"go.uber.org/zap"
)

// Job is the execution context of one run. It replaces process-wide
// counters and loggers: every pass receives the Job it belongs to.
type Job struct {
	ID       string
	Counters *Counters
	Logger   *zap.SugaredLogger
}

// NewJob creates a job context. A nil logger is replaced by a no-op logger.
func NewJob(id string, logger *zap.SugaredLogger) *Job {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Job{
		ID:       id,
		Counters: NewCounters(id),
		Logger:   logger.With("run_id", id),
	}
}

// Named returns a component logger scoped to this job
func (j *Job) Named(component string) *zap.SugaredLogger {
	return j.Logger.Named(component)
}
