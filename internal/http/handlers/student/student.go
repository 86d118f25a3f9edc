// Package student contains all HTTP handlers related to the Student resource.
//
// Every handler is built by a factory that receives its dependencies
// and returns an http.HandlerFunc closing over them:
//
//	router.HandleFunc("POST /api/students", student.New(store))
//
// New(store) runs once at startup; the returned closure runs on every
// request. Handlers hold no state of their own, so any number of
// requests may run them concurrently.
//
// Each handler follows the same shape: read the path and body, run the
// validate package, make exactly one store call for the write, and map
// the outcome through writeStoreError.
package student

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/enrollment-api/internal/storage"
	"github.com/aanand-mishra/enrollment-api/internal/types"
	"github.com/aanand-mishra/enrollment-api/internal/utils/response"
	"github.com/aanand-mishra/enrollment-api/internal/validate"
	"github.com/go-playground/validator/v10"
)

// ─────────────────────────────────────────────────────────────────────────────
// CREATE
// ─────────────────────────────────────────────────────────────────────────────

// New handles POST /api/students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "Alice Johnson", "email": "alice@example.com", "phone": "0712345671",
//	  "course": "BSc (Hons) in Computer Science", "status": "Active" }
//
// Success response (201 Created): the stored student, including id,
// createdAt and updatedAt.
//
// Error responses:
//
//	400 Bad Request  empty body, malformed JSON, failed validation, duplicate email
//	413 Too Large    body over response.MaxBodyBytes
//	500 Internal     database error
//
// Email uniqueness is decided by the store's unique index, not by a
// lookup before the insert, so two concurrent creates with the same
// email cannot both succeed.
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		// ── Step 1: Decode JSON body ─────────────────────────────────────
		var input types.StudentInput
		if !response.DecodeJSON(w, r, &input) {
			return
		}

		// ── Step 2: Validate ─────────────────────────────────────────────
		// The input is applied over a record that already carries the
		// default status, so only an omitted status becomes Pending. An
		// explicit "" still fails validation.
		candidate, err := validate.Student(input.ApplyTo(types.Student{Status: types.DefaultStatus}))
		if err != nil {
			writeValidationError(w, err)
			return
		}

		// ── Step 3: Persist ──────────────────────────────────────────────
		created, err := store.CreateStudent(r.Context(), candidate)
		if err != nil {
			writeStoreError(w, "create", "", err)
			return
		}

		slog.Info("student created", slog.String("id", created.ID))

		// ── Step 4: Respond with 201 and the stored record ───────────────
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// READ
// ─────────────────────────────────────────────────────────────────────────────

// GetByID handles GET /api/students/{id}
//
// Success response (200 OK): the student.
//
// Error responses:
//
//	404 Not Found    no student has this id
//	500 Internal     malformed id, database error
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "get")
		if !ok {
			return
		}
		slog.Info("getting a student", slog.String("id", id))

		student, err := store.GetStudentByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, "get", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /api/students
// Returns every student, newest first. An empty collection encodes as [].
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.GetStudents(r.Context())
		if err != nil {
			writeStoreError(w, "list", "", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// UPDATE
// ─────────────────────────────────────────────────────────────────────────────

// Update handles PUT /api/students/{id}
//
// The body may carry any subset of the student fields; fields left out
// keep their stored value. The merged record is validated as a whole,
// so a bad course or status is rejected and the stored record is left
// untouched.
//
// Error responses:
//
//	400 Bad Request  empty body, malformed JSON, failed validation, duplicate email
//	404 Not Found    no student has this id (checked before the body is read)
//	413 Too Large    body over response.MaxBodyBytes
//	500 Internal     malformed id, database error
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "update")
		if !ok {
			return
		}
		slog.Info("updating a student", slog.String("id", id))

		// ── Step 1: The target must exist ────────────────────────────────
		existing, err := store.GetStudentByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, "update", id, err)
			return
		}

		// ── Step 2: Decode JSON body ─────────────────────────────────────
		var input types.StudentInput
		if !response.DecodeJSON(w, r, &input) {
			return
		}

		// ── Step 3: Merge onto the stored record and validate ────────────
		candidate, err := validate.Student(input.ApplyTo(existing))
		if err != nil {
			writeValidationError(w, err)
			return
		}

		// ── Step 4: Persist ──────────────────────────────────────────────
		// The store re-checks existence: a delete that lands between
		// step 1 and here still yields 404.
		updated, err := store.UpdateStudentByID(r.Context(), id, candidate)
		if err != nil {
			writeStoreError(w, "update", id, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// DELETE
// ─────────────────────────────────────────────────────────────────────────────

// Delete handles DELETE /api/students/{id}
// Permanently removes a student record.
//
// Success response (200 OK):
//
//	{ "message": "Student removed successfully" }
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "delete")
		if !ok {
			return
		}
		slog.Info("deleting a student", slog.String("id", id))

		if err := store.DeleteStudentByID(r.Context(), id); err != nil {
			writeStoreError(w, "delete", id, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message(response.MsgDeleted))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// QUERIES
// ─────────────────────────────────────────────────────────────────────────────

// GetByStatus handles GET /api/students/status/{status}
// The value is matched literally; an unknown status returns [].
func GetByStatus(store storage.Storage) http.HandlerFunc {
	return filtered(store, "status", func(r *http.Request) storage.Filter {
		return storage.Filter{Status: r.PathValue("status")}
	})
}

// GetByCourse handles GET /api/students/course/{course}
// The value is matched literally; an unknown course returns [].
func GetByCourse(store storage.Storage) http.HandlerFunc {
	return filtered(store, "course", func(r *http.Request) storage.Filter {
		return storage.Filter{Course: r.PathValue("course")}
	})
}

// Search handles GET /api/students/search/{query}
// Matches name, email or phone containing the query, ignoring case.
func Search(store storage.Storage) http.HandlerFunc {
	return filtered(store, "search", func(r *http.Request) storage.Filter {
		return storage.Filter{Search: r.PathValue("query")}
	})
}

func filtered(store storage.Storage, op string, filter func(*http.Request) storage.Filter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := filter(r)
		slog.Info("querying students",
			slog.String("by", op),
			slog.String("status", f.Status),
			slog.String("course", f.Course),
			slog.String("search", f.Search),
		)

		students, err := store.GetStudentsWhere(r.Context(), f)
		if err != nil {
			writeStoreError(w, op, "", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// HELPERS
// ─────────────────────────────────────────────────────────────────────────────

// pathID extracts {id}. An id that could never have been issued by the
// store is a failed lookup, reported like any other store failure: a
// bare 500 with the detail in the log.
func pathID(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	id := r.PathValue("id")
	if !storage.ValidID(id) {
		slog.Error("malformed student id",
			slog.String("op", op),
			slog.String("id", id))
		response.WriteJSON(w, http.StatusInternalServerError, response.ServerError())
		return "", false
	}
	return id, true
}

func writeValidationError(w http.ResponseWriter, err error) {
	var validateErrs validator.ValidationErrors
	if errors.As(err, &validateErrs) {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
		return
	}

	slog.Error("validator failed", slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.ServerError())
}

// writeStoreError maps store sentinels to client responses. Anything it
// does not recognise is logged in full and reported as a bare 500.
func writeStoreError(w http.ResponseWriter, op, id string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.Message(response.MsgNotFound))
	case errors.Is(err, storage.ErrDuplicateEmail):
		response.WriteJSON(w, http.StatusBadRequest, response.Message(response.MsgDuplicateEmail))
	case errors.Is(err, storage.ErrConstraint):
		response.WriteJSON(w, http.StatusBadRequest, response.Message("Student failed validation"))
	default:
		slog.Error("student store error",
			slog.String("op", op),
			slog.String("id", id),
			slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.ServerError())
	}
}
