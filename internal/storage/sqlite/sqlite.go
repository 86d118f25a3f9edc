// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk: no network, no
// separate server process, no installation beyond the driver. It is the
// default backend.
//
// The store enforces the student invariants itself: a unique index on
// LOWER(email) and CHECK constraints for the course and status
// enumerations, so a record that skipped validation still cannot land
// in the table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aanand-mishra/enrollment-api/internal/config"
	"github.com/aanand-mishra/enrollment-api/internal/storage"
	"github.com/aanand-mishra/enrollment-api/internal/types"

	// Supplies the driver registered below and its constraint error codes.
	"github.com/mattn/go-sqlite3"
)

// driverName is go-sqlite3 with go_lower registered on every connection.
// SQLite's own LOWER() folds ASCII only; go_lower applies the same
// Unicode folding as storage.LikePattern, so both sides of a search
// compare alike.
const driverName = "sqlite3_students"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("go_lower", strings.ToLower, true)
		},
	})
}

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// studentColumns is the SELECT list shared by every read, in scan order.
const studentColumns = "id, name, email, phone, course, status, created_at, updated_at"

// New opens the SQLite database at cfg.StoragePath, creates the schema
// if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	// busy_timeout makes concurrent writers wait for the lock instead of
	// failing immediately with SQLITE_BUSY.
	db, err := sql.Open(driverName, cfg.StoragePath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE ... IF NOT EXISTS is idempotent, safe to run on every startup.
	if _, err := db.Exec(schema()); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create schema: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// schema builds the DDL. The enumeration CHECKs are generated from the
// types package so the two lists cannot drift apart.
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
			id         TEXT     PRIMARY KEY,
			name       TEXT     NOT NULL CHECK (length(name) > 0),
			email      TEXT     NOT NULL CHECK (length(email) > 0),
			phone      TEXT     NOT NULL CHECK (length(phone) > 0 AND phone NOT GLOB '*[^0-9]*'),
			course     TEXT     NOT NULL CHECK (course IN (%s)),
			status     TEXT     NOT NULL DEFAULT %s CHECK (status IN (%s)),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_students_email ON students (LOWER(email));
		CREATE INDEX IF NOT EXISTS idx_students_status ON students (status);
		CREATE INDEX IF NOT EXISTS idx_students_course ON students (course);
	`,
		strings.Join(courses, ", "),
		quote(string(types.DefaultStatus)),
		strings.Join(statuses, ", "),
	)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// mapError translates driver constraint failures into storage sentinels.
func mapError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		return fmt.Errorf("%w: %s", storage.ErrDuplicateEmail, sqliteErr.Error())
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		return fmt.Errorf("%w: %s", storage.ErrConstraint, sqliteErr.Error())
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (types.Student, error) {
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
	return student, err
}

// CreateStudent inserts a new row, assigning id and both timestamps.
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students ("+studentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	now := storage.Now()
	student.ID = storage.NewID()
	student.CreatedAt = now
	student.UpdatedAt = now

	_, err = stmt.ExecContext(ctx,
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

// GetStudentByID fetches exactly one student row matched by primary key.
func (s *SQLite) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	student, err := scanStudent(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("GetStudentByID %s: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudents returns all students, newest first. rowid breaks ties
// between rows created within the same microsecond.
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	return s.query(ctx, "GetStudents",
		"SELECT "+studentColumns+" FROM students ORDER BY created_at DESC, rowid DESC",
	)
}

// GetStudentsWhere returns the students matching f in insertion order.
func (s *SQLite) GetStudentsWhere(ctx context.Context, f storage.Filter) ([]types.Student, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Course != "" {
		conds = append(conds, "course = ?")
		args = append(args, f.Course)
	}
	if f.Search != "" {
		pattern := storage.LikePattern(f.Search)
		conds = append(conds, `(go_lower(name) LIKE ? ESCAPE '\' OR go_lower(email) LIKE ? ESCAPE '\' OR go_lower(phone) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	query := "SELECT " + studentColumns + " FROM students"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid ASC"

	return s.query(ctx, "GetStudentsWhere", query, args...)
}

func (s *SQLite) query(ctx context.Context, op, query string, args ...any) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	// Non-nil so an empty result encodes as [] rather than null.
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
// updated_at, then re-reads the row so the caller gets exactly what is
// stored.
func (s *SQLite) UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		`UPDATE students
		 SET name = ?, email = ?, phone = ?, course = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		student.Name,
		student.Email,
		student.Phone,
		string(student.Course),
		string(student.Status),
		storage.Now(),
		id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", mapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: rows affected: %w", err)
	}
	if affected == 0 {
		return types.Student{}, fmt.Errorf("UpdateStudentByID %s: %w", id, storage.ErrNotFound)
	}

	return s.GetStudentByID(ctx, id)
}

// DeleteStudentByID removes a student row by primary key.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id string) error {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("DeleteStudentByID %s: %w", id, storage.ErrNotFound)
	}

	return nil
}

// Ping checks the database file is still reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}
