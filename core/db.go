package core

import (
	"context"
	"database/sql"
)

type (
	// DBExecutor is the statement surface the repositories run queries
	// against. *sqlx.DB and *sqlx.Tx both satisfy it, so repository helpers
	// work identically inside and outside a transaction.
	DBExecutor interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	// DBTransactor is a started transaction.
	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)
