package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsTransient reports whether a pgx error is worth retrying.
// Server errors are transient only for connection, rollback, resource and
// operator-intervention classes; anything else is a bug in the statement.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) < 2 {
			return false
		}
		switch pgErr.Code[:2] {
		case "08", "40", "53", "57":
			return true
		default:
			return false
		}
	}

	// network failures, pool acquire timeouts, per-statement deadlines
	return true
}
