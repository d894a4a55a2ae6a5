package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestSQLState(t *testing.T) {
	t.Run("lib/pq error", func(t *testing.T) {
		err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
		assert.True(t, IsUniqueViolation(err))
		assert.False(t, IsForeignKeyViolation(err))
	})

	t.Run("pgx error", func(t *testing.T) {
		err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})
		assert.True(t, IsForeignKeyViolation(err))
		assert.False(t, IsUniqueViolation(err))
	})

	t.Run("data errors", func(t *testing.T) {
		assert.True(t, IsDataError(&pgconn.PgError{Code: "22P02"}))
		assert.True(t, IsDataError(&pq.Error{Code: "23514"}))
		assert.True(t, IsDataError(&pq.Error{Code: "23502"}))
		assert.False(t, IsDataError(&pq.Error{Code: "40001"}))
		assert.False(t, IsDataError(&pq.Error{Code: "23505"}))
	})

	t.Run("any data exception", func(t *testing.T) {
		for _, code := range []string{"22001", "22P05", "22003", "22007", "22021"} {
			assert.True(t, IsDataError(fmt.Errorf("exec: %w", &pgconn.PgError{Code: code})), code)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, "", SQLState(errors.New("boom")))
		assert.Equal(t, "", SQLState(nil))
	})
}
