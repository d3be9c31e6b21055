package db

import (
	"strings"

	"github.com/teranos/taxa/errors"
)

// ErrDatabaseClosed is returned when the cache is used after Close, e.g. a
// request racing a server reload.
var ErrDatabaseClosed = errors.New("database is closed")

// ErrEmptyCache means the cache has never been populated. It matches
// errors.ErrServiceUnavailable.
var ErrEmptyCache = errors.Mark(errors.New("taxonomy cache is empty"), errors.ErrServiceUnavailable)

// ErrSchemaMismatch means the cache was written by an incompatible taxa.
var ErrSchemaMismatch = errors.New("taxonomy cache schema is incompatible")

const rebuildHint = "build the cache with 'taxa taxonomy set <url>' or 'taxa taxonomy build <dir>'"

// IsDatabaseClosed reports whether err means the connection is closed,
// whether wrapped here or raised directly by database/sql.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
