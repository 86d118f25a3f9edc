package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aanand-mishra/enrollment-api/internal/config"
	"github.com/aanand-mishra/enrollment-api/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	creds, err := NewCredentials(config.Admin{Email: "admin@school.edu", Password: "Admin123"})
	require.NoError(t, err)
	return Login(creds)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	rec := post(newHandler(t), `{"email":"admin@school.edu","password":"Admin123"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Admin","role":"admin","email":"admin@school.edu"}`, rec.Body.String())
}

func TestLoginRejected(t *testing.T) {
	h := newHandler(t)

	for _, body := range []string{
		`{"email":"admin@school.edu","password":"Admin124"}`,
		`{"email":"someone@school.edu","password":"Admin123"}`,
	} {
		rec := post(h, body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.JSONEq(t, `{"message":"Invalid credentials"}`, rec.Body.String())
	}
}

func TestLoginValidatesShape(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", `{"message":"Request body is empty"}`},
		{"bad email", `{"email":"admin","password":"Admin123"}`, `{"message":"field email must be a valid email address"}`},
		{"short password", `{"email":"admin@school.edu","password":"Ab1"}`, `{"message":"field password must be at least 6 characters"}`},
		{"weak password", `{"email":"admin@school.edu","password":"admin123"}`, `{"message":"field password must contain an uppercase letter, a lowercase letter and a number"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestCredentialsKeepNoPlaintext(t *testing.T) {
	creds, err := NewCredentials(config.Admin{Email: "admin@school.edu", Password: "Admin123"})
	require.NoError(t, err)

	assert.NotContains(t, string(creds.passwordHash), "Admin123")
	assert.True(t, creds.Match("admin@school.edu", "Admin123"))
	assert.False(t, creds.Match("admin@school.edu", ""))
}

func TestLoginRejectsOversizedBody(t *testing.T) {
	body := `{"email":"admin@school.edu","password":"` + strings.Repeat("A", response.MaxBodyBytes) + `"}`

	rec := post(newHandler(t), body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
