// Package sqlxrepos implements the core repositories over Postgres with
// hand-written SQL. Uniqueness and check constraints live in the schema
// (storage/database/migrations); this package's job is mapping rows to
// domain types and Postgres errors to core errors.
package sqlxrepos

import (
	"strconv"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

const pqUniqueViolation = "23505"

// itoa keeps positional-parameter building readable in filter queries.
func itoa(n int) string { return strconv.Itoa(n) }

// trapConflictErr maps a psql unique-violation to core.ConflictError so
// callers can treat racing duplicate inserts as "already handled".
func trapConflictErr(err error, resource, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
		return core.NewConflictError(resource, err)
	}
	return errors.Wrap(err, msg)
}
