package handler

import (
	"net/http"

	"github.com/nextcampus/crm-backend/internal/repository"
)

// LogHandler serves /api/automation-logs, the cross-automation activity
// feed.
type LogHandler struct {
	Repo repository.AutomationRepositoryInterface
}

func (h *LogHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n := atoiOrZero(v); n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	logs, err := h.Repo.RecentLogs(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": logs})
}

func (h *LogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid log id")
		return
	}
	log, err := h.Repo.GetLog(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if log == nil {
		notFound(w, "automation log not found")
		return
	}
	writeJSON(w, http.StatusOK, log)
}
