// Package storage defines the Storage interface: the contract any
// database backend must satisfy to hold Student records.
//
// Handlers depend only on this interface. The sqlite and postgres
// packages implement it, and storagetest holds the behaviour both must
// share.
//
// Business rules that a store MUST enforce on its own, regardless of
// what the caller validated:
//
//   - email is unique across the live collection (case-insensitive);
//   - course and status are members of their enumerations;
//   - id and createdAt never change after insert;
//   - delete is permanent.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/enrollment-api/internal/types"
)

// Sentinel errors returned (possibly wrapped) by every implementation.
// Match them with errors.Is.
var (
	// ErrNotFound means no student has the requested id.
	ErrNotFound = errors.New("student not found")

	// ErrDuplicateEmail means the email unique constraint rejected the write.
	ErrDuplicateEmail = errors.New("student with this email already exists")

	// ErrConstraint means another store constraint (CHECK, NOT NULL)
	// rejected the write.
	ErrConstraint = errors.New("student violates a storage constraint")
)

// Filter selects students for GetStudentsWhere. Empty fields are ignored;
// non-empty fields are combined with AND.
type Filter struct {
	// Status matches the status column exactly. It is not checked
	// against the enumeration, so an unknown value simply matches nothing.
	Status string

	// Course matches the course column exactly, same as Status.
	Course string

	// Search matches students whose name, email or phone contains the
	// token as a case-insensitive substring.
	Search string
}

// Storage is the Student Store contract.
type Storage interface {
	// CreateStudent inserts s, assigning ID, CreatedAt and UpdatedAt.
	// Returns the stored record, or ErrDuplicateEmail / ErrConstraint.
	CreateStudent(ctx context.Context, s types.Student) (types.Student, error)

	// GetStudentByID fetches a single student. Returns ErrNotFound if absent.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// GetStudents returns every student, newest first.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentsWhere returns the students matching f in insertion order.
	// Returns an empty slice (not nil) if nothing matches.
	GetStudentsWhere(ctx context.Context, f Filter) ([]types.Student, error)

	// UpdateStudentByID replaces the mutable fields of an existing student
	// and refreshes UpdatedAt. Returns the stored record, or ErrNotFound /
	// ErrDuplicateEmail / ErrConstraint.
	UpdateStudentByID(ctx context.Context, id string, s types.Student) (types.Student, error)

	// DeleteStudentByID removes a student permanently.
	// Returns ErrNotFound if absent.
	DeleteStudentByID(ctx context.Context, id string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
