package handlers

import (
	"net/http"
	"strconv"

	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/web"
)

const maxActivityLimit = 1000

type ActivityHandler struct {
	activityRepo *database.ActivityRepo
}

func NewActivityHandler() *ActivityHandler {
	return &ActivityHandler{activityRepo: database.NewActivityRepo()}
}

// List returns the activity log newest first, filtered by ?username and
// ?action, capped by ?limit (default 100).
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := database.ActivityFilter{
		Username: r.URL.Query().Get("username"),
		Action:   r.URL.Query().Get("action"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxActivityLimit {
			web.FailErr(w, r, web.ErrInvalidParam, "limit must be between 1 and 1000")
			return
		}
		filter.Limit = n
	}

	entries, err := h.activityRepo.List(r.Context(), filter)
	if err != nil {
		logger.Audit.Error().Err(err).Msg("activity query failed")
		web.FailStore(w, r, err, web.ErrActivityQuery)
		return
	}
	web.OK(w, r, entries)
}
