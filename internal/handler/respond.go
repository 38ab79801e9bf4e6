package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Pagination is the envelope metadata every list endpoint returns.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func writeList(w http.ResponseWriter, data any, p Pagination) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       data,
		"pagination": p,
	})
}

// writeError maps domain errors onto HTTP statuses. Not-found types become
// 404, an inactive automation 409, everything else 500 with the message
// passed through.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch err.(type) {
	case *appErrors.ErrAutomationNotFound,
		*appErrors.ErrSegmentNotFound,
		*appErrors.ErrTemplateNotFound,
		*appErrors.ErrCustomerNotFound,
		*appErrors.ErrLeadNotFound:
		status = http.StatusNotFound
	case *appErrors.ErrAutomationInactive:
		status = http.StatusConflict
	case *appErrors.SegmentExecutionError, *appErrors.HandlerNotFoundError:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": msg})
}

// parsePagination reads page/limit query params with defaults 1/20 and a
// hard cap of 100.
func parsePagination(r *http.Request) (page, limit int) {
	page = defaultPage
	limit = defaultLimit

	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseID(r *http.Request, param string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
