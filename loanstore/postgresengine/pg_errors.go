package postgresengine

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// sqlState extracts the SQLSTATE code from pgx and lib/pq errors.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

func isUniqueViolation(err error) bool {
	return sqlState(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return sqlState(err) == pgForeignKeyViolation
}
