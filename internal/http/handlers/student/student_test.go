package student

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aanand-mishra/enrollment-api/internal/config"
	"github.com/aanand-mishra/enrollment-api/internal/storage"
	"github.com/aanand-mishra/enrollment-api/internal/storage/sqlite"
	"github.com/aanand-mishra/enrollment-api/internal/types"
	"github.com/aanand-mishra/enrollment-api/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMux(store storage.Storage) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/students", New(store))
	mux.HandleFunc("GET /api/students", GetList(store))
	mux.HandleFunc("GET /api/students/{id}", GetByID(store))
	mux.HandleFunc("PUT /api/students/{id}", Update(store))
	mux.HandleFunc("DELETE /api/students/{id}", Delete(store))
	mux.HandleFunc("GET /api/students/status/{status}", GetByStatus(store))
	mux.HandleFunc("GET /api/students/course/{course}", GetByCourse(store))
	mux.HandleFunc("GET /api/students/search/{query}", Search(store))
	return mux
}

func newTestMux(t *testing.T) (*http.ServeMux, storage.Storage) {
	t.Helper()
	store, err := sqlite.New(&config.Config{StoragePath: filepath.Join(t.TempDir(), "students.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return newMux(store), store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const aliceJSON = `{
	"name": "Alice Johnson",
	"email": "Alice@Example.com",
	"phone": "0712345671",
	"course": "BSc (Hons) in Computer Science",
	"status": "Active"
}`

const bobJSON = `{
	"name": "Bob Smith",
	"email": "bob@example.com",
	"phone": "0712345672",
	"course": "BSc (Hons) in Software Engineering"
}`

func createAlice(t *testing.T, h http.Handler) types.Student {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/students", aliceJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[types.Student](t, rec)
}

func TestCreate(t *testing.T) {
	h, _ := newTestMux(t)

	created := createAlice(t, h)
	assert.True(t, storage.ValidID(created.ID))
	assert.Equal(t, "alice@example.com", created.Email, "email is lowercased")
	assert.Equal(t, types.StatusActive, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	rec := do(t, h, http.MethodPost, "/api/students", bobJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, types.StatusPending, decode[types.Student](t, rec).Status, "status defaults to Pending")
}

func TestCreateDuplicateEmailIgnoresCase(t *testing.T) {
	h, store := newTestMux(t)
	createAlice(t, h)

	again := strings.Replace(aliceJSON, "Alice@Example.com", "ALICE@example.COM", 1)
	rec := do(t, h, http.MethodPost, "/api/students", again)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Student with this email already exists"}`, rec.Body.String())

	all, err := store.GetStudents(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateRejectsBadInput(t *testing.T) {
	h, _ := newTestMux(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "Request body is empty"},
		{"malformed json", `{"name":`, "Invalid request body"},
		{"phone as number", `{"phone": 712345}`, "Invalid request body"},
		{"missing fields", `{"name":"Alice"}`, "field email is required, field phone is required, field course is required"},
		{"unknown course", strings.Replace(aliceJSON, "BSc (Hons) in Computer Science", "Computer Science", 1), "field course must be one of the offered courses"},
		{"letters in phone", strings.Replace(aliceJSON, "0712345671", "07123abc", 1), "field phone must contain only digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/students", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decode[map[string]string](t, rec)["message"])
		})
	}
}

func TestGetByID(t *testing.T) {
	h, _ := newTestMux(t)
	created := createAlice(t, h)

	rec := do(t, h, http.MethodGet, "/api/students/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[types.Student](t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Alice Johnson", got.Name)

	rec = do(t, h, http.MethodGet, "/api/students/"+storage.NewID(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Student not found"}`, rec.Body.String())

}

func TestMalformedIDIsGeneric500(t *testing.T) {
	h, _ := newTestMux(t)
	createAlice(t, h)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := do(t, h, method, "/api/students/42", `{"status":"Active"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, method)
		assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
	}
}

func TestGetListNewestFirst(t *testing.T) {
	h, _ := newTestMux(t)

	rec := do(t, h, http.MethodGet, "/api/students", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	createAlice(t, h)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/students", bobJSON).Code)

	students := decode[[]types.Student](t, do(t, h, http.MethodGet, "/api/students", ""))
	require.Len(t, students, 2)
	assert.Equal(t, "Bob Smith", students[0].Name)
	assert.Equal(t, "Alice Johnson", students[1].Name)
}

func TestUpdatePartial(t *testing.T) {
	h, _ := newTestMux(t)
	created := createAlice(t, h)

	rec := do(t, h, http.MethodPut, "/api/students/"+created.ID, `{"status":"Graduated"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[types.Student](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, types.StatusGraduated, updated.Status)
	assert.Equal(t, "Alice Johnson", updated.Name, "fields left out keep their value")
	assert.Equal(t, types.CourseComputerScience, updated.Course)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestUpdateRejectsCourseOutsideEnumeration(t *testing.T) {
	h, _ := newTestMux(t)
	created := createAlice(t, h)

	rec := do(t, h, http.MethodPut, "/api/students/"+created.ID, `{"course":"Astrology"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "field course must be one of the offered courses", decode[map[string]string](t, rec)["message"])

	got := decode[types.Student](t, do(t, h, http.MethodGet, "/api/students/"+created.ID, ""))
	assert.Equal(t, types.CourseComputerScience, got.Course, "stored record is unchanged")
}

func TestUpdateMissingAndDuplicate(t *testing.T) {
	h, _ := newTestMux(t)
	createAlice(t, h)
	bob := decode[types.Student](t, do(t, h, http.MethodPost, "/api/students", bobJSON))

	rec := do(t, h, http.MethodPut, "/api/students/"+storage.NewID(), `{"status":"Active"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/students/"+bob.ID, `{"email":"ALICE@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Student with this email already exists"}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/students/"+bob.ID, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateChecksExistenceBeforeBody(t *testing.T) {
	h, _ := newTestMux(t)
	missing := "/api/students/" + storage.NewID()

	for _, body := range []string{"", `{"name":`} {
		rec := do(t, h, http.MethodPut, missing, body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "body %q", body)
		assert.JSONEq(t, `{"message":"Student not found"}`, rec.Body.String())
	}
}

func TestEmptyStatusIsRejectedNotDefaulted(t *testing.T) {
	h, _ := newTestMux(t)
	created := createAlice(t, h)

	rec := do(t, h, http.MethodPut, "/api/students/"+created.ID, `{"status":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "field status is required", decode[map[string]string](t, rec)["message"])

	got := decode[types.Student](t, do(t, h, http.MethodGet, "/api/students/"+created.ID, ""))
	assert.Equal(t, types.StatusActive, got.Status, "stored status is unchanged")

	rec = do(t, h, http.MethodPost, "/api/students", strings.Replace(bobJSON, `"phone"`, `"status": "", "phone"`, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	h, _ := newTestMux(t)
	created := createAlice(t, h)
	huge := `{"name":"` + strings.Repeat("a", response.MaxBodyBytes) + `"}`

	rec := do(t, h, http.MethodPost, "/api/students", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/students/"+created.ID, huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	got := decode[types.Student](t, do(t, h, http.MethodGet, "/api/students/"+created.ID, ""))
	assert.Equal(t, "Alice Johnson", got.Name)
}

func TestDeleteTwice(t *testing.T) {
	h, _ := newTestMux(t)
	created := createAlice(t, h)

	rec := do(t, h, http.MethodDelete, "/api/students/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Student removed successfully"}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/students/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/students/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueries(t *testing.T) {
	h, _ := newTestMux(t)
	createAlice(t, h)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/students", bobJSON).Code)

	names := func(rec *httptest.ResponseRecorder) []string {
		require.Equal(t, http.StatusOK, rec.Code)
		var out []string
		for _, s := range decode[[]types.Student](t, rec) {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Alice Johnson"}, names(do(t, h, http.MethodGet, "/api/students/status/Active", "")))
	assert.Equal(t, []string{"Bob Smith"}, names(do(t, h, http.MethodGet, "/api/students/status/Pending", "")))
	assert.Empty(t, names(do(t, h, http.MethodGet, "/api/students/status/Expelled", "")))

	course := "/api/students/course/" + url.PathEscape(string(types.CourseSoftwareEngineering))
	assert.Equal(t, []string{"Bob Smith"}, names(do(t, h, http.MethodGet, course, "")))

	assert.Equal(t, []string{"Alice Johnson"}, names(do(t, h, http.MethodGet, "/api/students/search/alice", "")))
	assert.Equal(t, []string{"Alice Johnson", "Bob Smith"}, names(do(t, h, http.MethodGet, "/api/students/search/EXAMPLE", "")))
	assert.Equal(t, []string{"Bob Smith"}, names(do(t, h, http.MethodGet, "/api/students/search/5672", "")))
}

// brokenStore fails every call the way an unreachable database would.
type brokenStore struct{}

var errBroken = errors.New("dial tcp 10.0.0.5:5432: connection refused")

func (brokenStore) CreateStudent(context.Context, types.Student) (types.Student, error) {
	return types.Student{}, errBroken
}
func (brokenStore) GetStudentByID(context.Context, string) (types.Student, error) {
	return types.Student{}, errBroken
}
func (brokenStore) GetStudents(context.Context) ([]types.Student, error) { return nil, errBroken }
func (brokenStore) GetStudentsWhere(context.Context, storage.Filter) ([]types.Student, error) {
	return nil, errBroken
}
func (brokenStore) UpdateStudentByID(context.Context, string, types.Student) (types.Student, error) {
	return types.Student{}, errBroken
}
func (brokenStore) DeleteStudentByID(context.Context, string) error { return errBroken }
func (brokenStore) Ping(context.Context) error                     { return errBroken }
func (brokenStore) Close() error                                    { return nil }

func TestStoreFailureIsGeneric500(t *testing.T) {
	h := newMux(brokenStore{})
	id := storage.NewID()

	requests := []struct{ method, target, body string }{
		{http.MethodGet, "/api/students", ""},
		{http.MethodGet, "/api/students/" + id, ""},
		{http.MethodPost, "/api/students", aliceJSON},
		{http.MethodPut, "/api/students/" + id, `{"status":"Active"}`},
		{http.MethodDelete, "/api/students/" + id, ""},
		{http.MethodGet, "/api/students/status/Active", ""},
		{http.MethodGet, "/api/students/search/alice", ""},
	}

	for _, req := range requests {
		rec := do(t, h, req.method, req.target, req.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, req.method+" "+req.target)
		assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	}
}
