package api

import (
	"context"
	"net/http"

	"github.com/adamwoolhether/tablero/throttle"
	"github.com/adamwoolhether/tablero/web"
)

type health struct {
	queue *throttle.Queue
	build string
}

type healthStatus struct {
	Status  string `json:"status"`
	Build   string `json:"build,omitempty"`
	Pending int    `json:"pending"`
}

// healthz reports liveness and how many Airtable calls are waiting.
func (h health) healthz(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := healthStatus{Status: "ok", Build: h.build}
	if h.queue != nil {
		status.Pending = h.queue.PendingCount()
	}

	return web.RespondData(ctx, w, http.StatusOK, status)
}
