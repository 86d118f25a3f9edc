// Package router wires every HTTP handler onto one ServeMux and wraps it
// in the shared middleware stack.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/enrollment-api/internal/http/handlers/auth"
	"github.com/aanand-mishra/enrollment-api/internal/http/handlers/health"
	"github.com/aanand-mishra/enrollment-api/internal/http/handlers/student"
	"github.com/aanand-mishra/enrollment-api/internal/http/middleware"
	"github.com/aanand-mishra/enrollment-api/internal/storage"
)

// Deps are the collaborators the routes close over.
type Deps struct {
	Store          storage.Storage
	Credentials    *auth.Credentials
	Metrics        *middleware.Metrics
	Logger         *slog.Logger
	AllowedOrigins []string
}

// New builds the application handler.
//
// Route table:
//
//	GET    /                               health check
//	GET    /metrics                        Prometheus scrape endpoint
//	POST   /api/login                      admin login
//	POST   /api/students                   create a student
//	GET    /api/students                   list students, newest first
//	GET    /api/students/{id}              get one student
//	PUT    /api/students/{id}              update a student
//	DELETE /api/students/{id}              delete a student
//	GET    /api/students/status/{status}   students with a status
//	GET    /api/students/course/{course}   students on a course
//	GET    /api/students/search/{query}    substring search
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, d.Metrics.Instrument(pattern, h))
	}

	handle("GET /{$}", health.New(d.Store))
	handle("POST /api/login", auth.Login(d.Credentials))

	handle("POST /api/students", student.New(d.Store))
	handle("GET /api/students", student.GetList(d.Store))
	handle("GET /api/students/{id}", student.GetByID(d.Store))
	handle("PUT /api/students/{id}", student.Update(d.Store))
	handle("DELETE /api/students/{id}", student.Delete(d.Store))
	handle("GET /api/students/status/{status}", student.GetByStatus(d.Store))
	handle("GET /api/students/course/{course}", student.GetByCourse(d.Store))
	handle("GET /api/students/search/{query}", student.Search(d.Store))

	mux.Handle("GET /metrics", d.Metrics.Handler())

	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Recover(log),
		middleware.CORS(d.AllowedOrigins),
	)
}
