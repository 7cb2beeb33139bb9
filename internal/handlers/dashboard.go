package handlers

import (
	"net/http"

	"cybercase/internal/dashboard"
	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/web"
)

// DashboardHandler serves the dashboard snapshot and the chart series.
type DashboardHandler struct {
	builder   *dashboard.Builder
	statsRepo *database.StatsRepo
}

func NewDashboardHandler(builder *dashboard.Builder) *DashboardHandler {
	return &DashboardHandler{
		builder:   builder,
		statsRepo: database.NewStatsRepo(),
	}
}

// Get builds a fresh snapshot rather than serving the pushed one.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.builder.Build(r.Context())
	if err != nil {
		logger.Dashboard.Error().Err(err).Msg("dashboard query failed")
		web.FailStore(w, r, err, web.ErrDashboardQuery)
		return
	}
	web.OK(w, r, snap)
}

func (h *DashboardHandler) ByType(w http.ResponseWriter, r *http.Request) {
	rows, err := h.statsRepo.CasesByType(r.Context())
	if err != nil {
		logger.Dashboard.Error().Err(err).Msg("cases by type failed")
		web.FailStore(w, r, err, web.ErrDashboardQuery)
		return
	}
	web.OK(w, r, rows)
}

func (h *DashboardHandler) ByStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := h.statsRepo.CasesByStatus(r.Context())
	if err != nil {
		logger.Dashboard.Error().Err(err).Msg("cases by status failed")
		web.FailStore(w, r, err, web.ErrDashboardQuery)
		return
	}
	web.OK(w, r, rows)
}

// Trend returns per-day creation counts within ?start_date and ?end_date.
func (h *DashboardHandler) Trend(w http.ResponseWriter, r *http.Request) {
	start, end, err := web.ParseDateRange(r)
	if err != nil {
		web.FailErr(w, r, web.ErrInvalidDate)
		return
	}
	rows, err := h.statsRepo.Trend(r.Context(), start, end)
	if err != nil {
		logger.Dashboard.Error().Err(err).Msg("trend query failed")
		web.FailStore(w, r, err, web.ErrDashboardQuery)
		return
	}
	web.OK(w, r, rows)
}
