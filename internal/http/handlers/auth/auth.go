// Package auth implements POST /api/login: a comparison against the
// single admin account from the configuration. No tokens, no sessions;
// the frontend keeps the returned payload as its login marker.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/enrollment-api/internal/config"
	"github.com/aanand-mishra/enrollment-api/internal/types"
	"github.com/aanand-mishra/enrollment-api/internal/utils/response"
	"github.com/aanand-mishra/enrollment-api/internal/validate"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is the admin account. Only a bcrypt hash of the password
// is kept after construction.
type Credentials struct {
	email        string
	passwordHash []byte
}

// NewCredentials hashes the configured admin password.
func NewCredentials(admin config.Admin) (*Credentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth.NewCredentials: hash password: %w", err)
	}
	return &Credentials{email: admin.Email, passwordHash: hash}, nil
}

// Match reports whether email and password identify the admin.
// The password is always checked, even when the email is wrong, so the
// response time does not reveal which half failed.
func (c *Credentials) Match(email, password string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(c.email)) == 1
	passwordOK := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	return emailOK && passwordOK
}

// Login handles POST /api/login
//
// Request body (JSON):
//
//	{ "email": "admin@school.edu", "password": "Admin123" }
//
// Success response (200 OK):
//
//	{ "name": "Admin", "role": "admin", "email": "admin@school.edu" }
//
// Error responses:
//
//	400 Bad Request   empty body, malformed JSON, email or password fails the format rules
//	413 Too Large     body over response.MaxBodyBytes
//	401 Unauthorized  credentials do not match
func Login(creds *Credentials) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// ── Step 1: Decode JSON body ─────────────────────────────────────
		var req types.LoginRequest
		if !response.DecodeJSON(w, r, &req) {
			return
		}

		// ── Step 2: Check the shape before comparing anything ────────────
		req, err := validate.Login(req)
		if err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
				return
			}
			slog.Error("validator failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.ServerError())
			return
		}

		// ── Step 3: Compare against the configured admin ─────────────────
		if !creds.Match(req.Email, req.Password) {
			slog.Warn("login rejected", slog.String("email", req.Email))
			response.WriteJSON(w, http.StatusUnauthorized, response.Message(response.MsgInvalidLogin))
			return
		}

		slog.Info("admin logged in", slog.String("email", req.Email))
		response.WriteJSON(w, http.StatusOK, types.Admin{
			Name:  "Admin",
			Role:  "admin",
			Email: creds.email,
		})
	}
}
