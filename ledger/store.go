package ledger

import (
	"database/sql"
	"sort"

	"github.com/teranos/canopy/errors"
)

// Store handles persistence of runs
type Store struct {
	db *sql.DB
}

// NewStore creates a run store over a migrated ledger database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const runColumns = `id, kind, status, input, output, config, error,
	created_at, started_at, finished_at, updated_at`

// CreateRun inserts a new run
func (s *Store) CreateRun(run *Run) error {
	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		run.ID,
		run.Kind,
		run.Status,
		run.Input,
		run.Output,
		nullString(string(run.Config)),
		nullString(run.Error),
		run.CreatedAt,
		run.StartedAt,
		run.FinishedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create run")
	}
	return nil
}

// UpdateRun writes the mutable fields of an existing run
func (s *Store) UpdateRun(run *Run) error {
	query := `
		UPDATE runs
		SET status = ?,
		    error = ?,
		    started_at = ?,
		    finished_at = ?,
		    updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.Exec(query,
		run.Status,
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
		run.UpdatedAt,
		run.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update run")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "run %s", run.ID)
	}
	return nil
}

// GetRun retrieves a run by id
func (s *Store) GetRun(id string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`

	run, err := scanRun(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "run %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get run")
	}
	return run, nil
}

// ListRuns returns the most recent runs first, optionally filtered by status
func (s *Store) ListRuns(status *Status, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating runs")
	}
	return runs, nil
}

// RecordRound stores the summary of a finished round
func (s *Store) RecordRound(r Round) error {
	query := `
		INSERT INTO rounds (run_id, round, t1, t2, parallelism, canopies, mean_group, max_group)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, r.RunID, r.Round, r.T1, r.T2, r.Parallelism, r.Canopies, r.MeanGroup, r.MaxGroup)
	if err != nil {
		return errors.Wrapf(err, "failed to record round %d of run %s", r.Round, r.RunID)
	}
	return nil
}

// Rounds returns the recorded rounds of a run in order
func (s *Store) Rounds(runID string) ([]Round, error) {
	query := `
		SELECT run_id, round, t1, t2, parallelism, canopies, mean_group, max_group
		FROM rounds WHERE run_id = ? ORDER BY round
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list rounds")
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		var r Round
		if err := rows.Scan(&r.RunID, &r.Round, &r.T1, &r.T2, &r.Parallelism, &r.Canopies, &r.MeanGroup, &r.MaxGroup); err != nil {
			return nil, errors.Wrap(err, "failed to scan round")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rounds")
	}
	return out, nil
}

// RecordCounters stores a counter snapshot. Recording the same name again
// replaces its value.
func (s *Store) RecordCounters(runID string, values map[string]int64) error {
	if len(values) == 0 {
		return nil
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin counters tx")
	}
	query := `
		INSERT INTO counters (run_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT (run_id, name) DO UPDATE SET value = excluded.value
	`
	for _, name := range names {
		if _, err := tx.Exec(query, runID, name, values[name]); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to record counter %s", name)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit counters")
	}
	return nil
}

// Counters returns the recorded counters of a run
func (s *Store) Counters(runID string) (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT name, value FROM counters WHERE run_id = ?`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list counters")
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan counter")
		}
		out[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating counters")
	}
	return out, nil
}

// Begin persists a queued run and moves it to running
func (s *Store) Begin(run *Run) error {
	if err := s.CreateRun(run); err != nil {
		return err
	}
	run.Start()
	return s.UpdateRun(run)
}

// Finish moves a running run to completed, or to failed when runErr is set
func (s *Store) Finish(run *Run, runErr error) error {
	if run.Status.Terminal() {
		return errors.NewInvalidArgumentf("run %s already %s", run.ID, run.Status)
	}
	if runErr != nil {
		run.Fail(runErr)
	} else {
		run.Complete()
	}
	return s.UpdateRun(run)
}
