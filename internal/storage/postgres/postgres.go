// Package postgres provides a PostgreSQL implementation of the
// storage.Storage interface on top of a pgx connection pool.
//
// Select it with storage_driver: postgres and a database_url. The schema
// mirrors the sqlite one: a unique index on LOWER(email) and CHECK
// constraints for the enumerations. A BIGSERIAL seq column records
// insertion order for filtered queries.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aanand-mishra/enrollment-api/internal/storage"
	"github.com/aanand-mishra/enrollment-api/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes the store maps to storage sentinels.
const (
	codeUniqueViolation  = "23505"
	codeCheckViolation   = "23514"
	codeNotNullViolation = "23502"
)

const studentColumns = "id, name, email, phone, course, status, created_at, updated_at"

// Postgres is the pgx-backed storage.Storage.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*Postgres)(nil)

// New connects to databaseURL, verifies the connection and creates the
// schema if needed.
func New(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse database url: %w", err)
	}

	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: create schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func schema() string {
	courses := make([]string, 0, len(types.Courses))
	for _, c := range types.Courses {
		courses = append(courses, quote(string(c)))
	}
	statuses := make([]string, 0, len(types.Statuses))
	for _, s := range types.Statuses {
		statuses = append(statuses, quote(string(s)))
	}

	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS students (
    id         TEXT        PRIMARY KEY,
    seq        BIGSERIAL   NOT NULL,
    name       TEXT        NOT NULL,
    email      TEXT        NOT NULL,
    phone      TEXT        NOT NULL,
    course     TEXT        NOT NULL,
    status     TEXT        NOT NULL DEFAULT %s,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,

    CONSTRAINT students_name_present CHECK (length(name) > 0),
    CONSTRAINT students_phone_digits CHECK (phone ~ '^[0-9]+$'),
    CONSTRAINT students_valid_course CHECK (course IN (%s)),
    CONSTRAINT students_valid_status CHECK (status IN (%s))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_students_email ON students (LOWER(email));
CREATE INDEX IF NOT EXISTS idx_students_status ON students (status);
CREATE INDEX IF NOT EXISTS idx_students_course ON students (course);
CREATE INDEX IF NOT EXISTS idx_students_created_at ON students (created_at DESC);
`,
		quote(string(types.DefaultStatus)),
		strings.Join(courses, ", "),
		strings.Join(statuses, ", "),
	)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// mapError translates constraint violations into storage sentinels.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", storage.ErrDuplicateEmail, pgErr.ConstraintName)
	case codeCheckViolation, codeNotNullViolation:
		return fmt.Errorf("%w: %s", storage.ErrConstraint, pgErr.ConstraintName)
	}
	return err
}

func scanStudent(row pgx.Row) (types.Student, error) {
	var student types.Student
	err := row.Scan(
		&student.ID,
		&student.Name,
		&student.Email,
		&student.Phone,
		&student.Course,
		&student.Status,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return types.Student{}, err
	}
	student.CreatedAt = student.CreatedAt.UTC()
	student.UpdatedAt = student.UpdatedAt.UTC()
	return student, nil
}

// CreateStudent inserts a new row, assigning id and both timestamps.
func (p *Postgres) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	now := storage.Now()
	student.ID = storage.NewID()
	student.CreatedAt = now
	student.UpdatedAt = now

	_, err := p.pool.Exec(ctx,
		"INSERT INTO students ("+studentColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		student.ID,
		student.Name,
		student.Email,
		student.Phone,
		string(student.Course),
		string(student.Status),
		student.CreatedAt,
		student.UpdatedAt,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", mapError(err))
	}

	return student, nil
}

// GetStudentByID fetches a single student by primary key.
func (p *Postgres) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	row := p.pool.QueryRow(ctx, "SELECT "+studentColumns+" FROM students WHERE id = $1", id)

	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Student{}, fmt.Errorf("GetStudentByID %s: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudents returns all students, newest first.
func (p *Postgres) GetStudents(ctx context.Context) ([]types.Student, error) {
	return p.query(ctx, "GetStudents",
		"SELECT "+studentColumns+" FROM students ORDER BY created_at DESC, seq DESC",
	)
}

// GetStudentsWhere returns the students matching f in insertion order.
func (p *Postgres) GetStudentsWhere(ctx context.Context, f storage.Filter) ([]types.Student, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.Course != "" {
		conds = append(conds, "course = "+arg(f.Course))
	}
	if f.Search != "" {
		pattern := arg(storage.LikePattern(f.Search))
		conds = append(conds, fmt.Sprintf(
			`(LOWER(name) LIKE %[1]s ESCAPE '\' OR LOWER(email) LIKE %[1]s ESCAPE '\' OR LOWER(phone) LIKE %[1]s ESCAPE '\')`,
			pattern,
		))
	}

	query := "SELECT " + studentColumns + " FROM students"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq ASC"

	return p.query(ctx, "GetStudentsWhere", query, args...)
}

func (p *Postgres) query(ctx context.Context, op, query string, args ...any) ([]types.Student, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration: %w", op, err)
	}

	return students, nil
}

// UpdateStudentByID replaces a student's mutable fields and refreshes
// updated_at in a single statement.
func (p *Postgres) UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error) {
	row := p.pool.QueryRow(ctx,
		`UPDATE students
		 SET name = $1, email = $2, phone = $3, course = $4, status = $5, updated_at = $6
		 WHERE id = $7
		 RETURNING `+studentColumns,
		student.Name,
		student.Email,
		student.Phone,
		string(student.Course),
		string(student.Status),
		storage.Now(),
		id,
	)

	updated, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Student{}, fmt.Errorf("UpdateStudentByID %s: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("UpdateStudentByID: %w", mapError(err))
	}

	return updated, nil
}

// DeleteStudentByID removes a student row by primary key.
func (p *Postgres) DeleteStudentByID(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteStudentByID %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// Ping checks the database connection is alive.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
