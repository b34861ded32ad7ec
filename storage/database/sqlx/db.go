// Package sqlxrepos holds the live Postgres repositories.
package sqlxrepos

import (
	"database/sql"

	"github.com/darasahq/darasa/core"
)

// trapNoRowsErr maps psql "no rows" to the domain not-found error; anything
// else is a backend fault callers may retry.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return core.NewTransientError(err, msg)
}
