// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Success responses may be any JSON shape (a student, a list, a login
// payload). Everything else uses Response, so API consumers always know
// what a failure looks like:
//
//	{ "message": "Student not found" }
//	{ "message": "Server error" }
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the envelope for errors and bare confirmations.
type Response struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Fixed client-facing messages.
const (
	MsgNotFound       = "Student not found"
	MsgDuplicateEmail = "Student with this email already exists"
	MsgDeleted        = "Student removed successfully"
	MsgServerError    = "Server error"
	MsgEmptyBody      = "Request body is empty"
	MsgBodyTooLarge   = "Request body is too large"
	MsgInvalidBody    = "Invalid request body"
	MsgInvalidLogin   = "Invalid credentials"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// Header() → WriteHeader() → body writes, in that order: once
// WriteHeader is called, headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

// DecodeJSON reads r's body into dst, writing the 400 or 413 itself when
// the body is empty, too large or not valid JSON. Callers return as soon
// as it reports false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		WriteJSON(w, http.StatusBadRequest, Message(MsgEmptyBody))
	case errors.As(err, &tooLarge):
		WriteJSON(w, http.StatusRequestEntityTooLarge, Message(MsgBodyTooLarge))
	default:
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
	}
	return false
}

// Message wraps a plain client-facing message.
func Message(msg string) Response {
	return Response{Message: msg}
}

// GeneralError reports a request the server could not read (bad JSON,
// wrong field types). The decoder's text goes in the error field. Never
// use it for store or transport failures.
func GeneralError(err error) Response {
	return Response{
		Message: MsgInvalidBody,
		Error:   err.Error(),
	}
}

// ServerError is the body of every 500. Internal detail goes to the log,
// not to the client.
func ServerError() Response {
	return Response{Message: MsgServerError}
}

// ValidationError converts validator.FieldError values into one
// human-readable Response, one sentence per failing field.
//
// Example output:
//
//	{ "message": "field name is required, field phone must contain only digits" }
func ValidationError(errs validator.ValidationErrors) Response {
	errMessages := make([]string, 0, len(errs))

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email", "simple_email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "number":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must contain only digits", e.Field()))
		case "course":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be one of the offered courses", e.Field()))
		case "student_status":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be one of Active, Pending, Graduated, Dropped", e.Field()))
		case "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s characters", e.Field(), e.Param()))
		case "strong_password":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must contain an uppercase letter, a lowercase letter and a number", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Message: strings.Join(errMessages, ", "),
	}
}
