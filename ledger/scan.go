package ledger

import (
	"database/sql"
	"encoding/json"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRun reads one row selected with runColumns
func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		config     sql.NullString
		errMsg     sql.NullString
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)
	err := row.Scan(
		&run.ID,
		&run.Kind,
		&run.Status,
		&run.Input,
		&run.Output,
		&config,
		&errMsg,
		&run.CreatedAt,
		&startedAt,
		&finishedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if config.Valid {
		run.Config = json.RawMessage(config.String)
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
