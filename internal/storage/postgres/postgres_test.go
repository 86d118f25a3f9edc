package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aanand-mishra/enrollment-api/internal/storage"
	"github.com/aanand-mishra/enrollment-api/internal/storage/storagetest"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dsnEnv names a disposable database. The suite truncates the students
// table before every subtest.
const dsnEnv = "STUDENTS_TEST_POSTGRES_DSN"

func TestPostgresConformance(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	store, err := New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		_, err := store.pool.Exec(context.Background(), "TRUNCATE students RESTART IDENTITY")
		require.NoError(t, err)
		return store
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"unique", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "idx_students_email"}, storage.ErrDuplicateEmail},
		{"check", &pgconn.PgError{Code: codeCheckViolation, ConstraintName: "students_valid_course"}, storage.ErrConstraint},
		{"not null", &pgconn.PgError{Code: codeNotNullViolation}, storage.ErrConstraint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.in), tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other))
}

func TestSchemaListsEveryEnumerationValue(t *testing.T) {
	ddl := schema()
	assert.Contains(t, ddl, "'BSc (Hons) in Data Science'")
	assert.Contains(t, ddl, "'Graduated'")
	assert.Contains(t, ddl, "DEFAULT 'Pending'")
}
