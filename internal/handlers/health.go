package handlers

import (
	"net/http"

	"cybercase/internal/database"
	"cybercase/internal/version"
	"cybercase/internal/web"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}

// Get reports whether the store answers a ping.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Version: version.Version}
	if err := database.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
	}
	web.OK(w, r, resp)
}
