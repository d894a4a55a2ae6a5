package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	classDataException      = "22"
)

// SQLState returns the SQLSTATE carried by a lib/pq or pgx error, or "".
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return SQLState(err) == codeUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return SQLState(err) == codeForeignKeyViolation
}

// IsDataError reports check and not-null violations and any data exception
// (class 22: over-long strings, bad syntax, numeric overflow). None of them
// succeed on retry.
func IsDataError(err error) bool {
	code := SQLState(err)
	switch code {
	case codeCheckViolation, codeNotNullViolation:
		return true
	}
	return strings.HasPrefix(code, classDataException)
}
