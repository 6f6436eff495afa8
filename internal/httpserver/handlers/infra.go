package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marklet/marklet/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the health of the server's collaborators. Redis being
// down degrades logins and realtime updates but reads keep working.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"sqlite": checkStore(r.Context(), d),
			"redis":  checkRedis(d),
		}

		mode := "nominal"
		if !components["sqlite"].OK {
			mode = "critical"
		} else if !components["redis"].OK {
			mode = "degraded"
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       mode,
			Components: components,
		})
	}
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	// A cheap owner-scoped read doubles as a liveness probe.
	if _, err := d.Bookmarks.ListBookmarks(ctx, "probe"); err != nil {
		return componentStatus{
			OK:     false,
			Impact: "reads-and-writes-unavailable",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true}
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Impact: "sessions-and-feed-unavailable",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Impact: "sessions-and-feed-unavailable",
			Error:  "timeout",
		}
	}
	return componentStatus{OK: true}
}
