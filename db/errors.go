package db

import (
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/teranos/canopy/errors"
)

// ErrDatabaseClosed is returned when the ledger is used after shutdown
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err means the connection is gone. The sql
// package returns its own unwrapped error for this, so the message is
// matched as a fallback.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// IsConstraintViolation reports whether err is a sqlite constraint failure,
// such as a duplicate primary key or a broken foreign key.
func IsConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
