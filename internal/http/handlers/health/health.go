// Package health serves GET /, the liveness probe the frontend and
// container orchestrators hit to see whether the API and its store are up.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/enrollment-api/internal/utils/response"
)

// Pinger is the part of storage.Storage the probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the probe payload.
type Status struct {
	Message  string `json:"message"`
	Database string `json:"database"`
}

// pingTimeout bounds the store check so a hung database cannot hang the probe.
const pingTimeout = 2 * time.Second

// New handles GET /
//
//	200 { "message": "Server is running", "database": "connected" }
//	503 { "message": "Server is running", "database": "unavailable" }
func New(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			slog.Error("health check: store unreachable", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, Status{
				Message:  "Server is running",
				Database: "unavailable",
			})
			return
		}

		response.WriteJSON(w, http.StatusOK, Status{
			Message:  "Server is running",
			Database: "connected",
		})
	}
}
