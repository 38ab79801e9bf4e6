package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextcampus/crm-backend/internal/model"
	"github.com/nextcampus/crm-backend/internal/repository"
	"github.com/nextcampus/crm-backend/internal/service"
)

// SegmentHandler serves /api/segments.
type SegmentHandler struct {
	Repo      repository.SegmentRepositoryInterface
	Customers repository.CustomerRepositoryInterface
	Resolver  *service.SegmentResolver
}

type segmentPayload struct {
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	Type            string  `json:"type"`
	SelectionSQL    *string `json:"selection_sql,omitempty"`
	HandlerFunction *string `json:"handler_function,omitempty"`
}

// validateSegment enforces the type/payload agreement: sql segments carry
// selection_sql, function segments carry handler_function, manual segments
// carry neither.
func validateSegment(p segmentPayload) (model.SegmentType, string) {
	if p.Name == "" {
		return "", "name is required"
	}
	switch model.SegmentType(p.Type) {
	case model.SegmentManual:
		if p.SelectionSQL != nil || p.HandlerFunction != nil {
			return "", "manual segments cannot carry selection_sql or handler_function"
		}
		return model.SegmentManual, ""
	case model.SegmentSQL:
		if p.SelectionSQL == nil || *p.SelectionSQL == "" {
			return "", "sql segments require selection_sql"
		}
		if p.HandlerFunction != nil {
			return "", "sql segments cannot carry handler_function"
		}
		return model.SegmentSQL, ""
	case model.SegmentFunction:
		if p.HandlerFunction == nil || *p.HandlerFunction == "" {
			return "", "function segments require handler_function"
		}
		if p.SelectionSQL != nil {
			return "", "function segments cannot carry selection_sql"
		}
		return model.SegmentFunction, ""
	default:
		return "", "type must be one of manual, sql, function"
	}
}

func (h *SegmentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	params := repository.SegmentSearchParams{
		Search: r.URL.Query().Get("search"),
		Type:   model.SegmentType(r.URL.Query().Get("type")),
		Page:   page,
		Limit:  limit,
	}

	segments, total, err := h.Repo.List(params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, segments, newPagination(page, limit, total))
}

func (h *SegmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid segment id")
		return
	}
	segment, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, segment)
}

func (h *SegmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload segmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	segmentType, msg := validateSegment(payload)
	if msg != "" {
		badRequest(w, msg)
		return
	}

	segment := model.CustomerSegment{
		Name:            payload.Name,
		Description:     payload.Description,
		Type:            segmentType,
		SelectionSQL:    payload.SelectionSQL,
		HandlerFunction: payload.HandlerFunction,
	}
	if err := h.Repo.Create(&segment); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, segment)
}

func (h *SegmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid segment id")
		return
	}

	var payload segmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	segmentType, msg := validateSegment(payload)
	if msg != "" {
		badRequest(w, msg)
		return
	}

	segment := model.CustomerSegment{
		ID:              id,
		Name:            payload.Name,
		Description:     payload.Description,
		Type:            segmentType,
		SelectionSQL:    payload.SelectionSQL,
		HandlerFunction: payload.HandlerFunction,
	}
	if err := h.Repo.Update(&segment); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, segment)
}

func (h *SegmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid segment id")
		return
	}
	if err := h.Repo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// Handlers lists the registered segment handler names for function-type
// segment configuration.
func (h *SegmentHandler) Handlers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"handlers": h.Resolver.Registry.Names()})
}

// Members resolves the segment with its own strategy and returns one page
// of concrete customers.
func (h *SegmentHandler) Members(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid segment id")
		return
	}
	segment, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	page, limit := parsePagination(r)
	ids, total, err := h.Resolver.ResolvePage(r.Context(), segment, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	customers, err := h.Customers.GetByIDs(ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, customers, newPagination(page, limit, total))
}

// AddMembers bulk-adds customers to a manual segment; duplicates are
// silently skipped.
func (h *SegmentHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid segment id")
		return
	}
	segment, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if segment.Type != model.SegmentManual {
		badRequest(w, "membership can only be edited on manual segments")
		return
	}

	var payload struct {
		CustomerIDs []int `json:"customer_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if len(payload.CustomerIDs) == 0 {
		badRequest(w, "customer_ids is required")
		return
	}

	added := 0
	for _, customerID := range payload.CustomerIDs {
		inserted, err := h.Repo.AddMember(id, customerID)
		if err != nil {
			writeError(w, err)
			return
		}
		if inserted {
			added++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"added":   added,
		"skipped": len(payload.CustomerIDs) - added,
	})
}

func (h *SegmentHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid segment id")
		return
	}
	customerID, ok := parseID(r, "customerID")
	if !ok {
		badRequest(w, "invalid customer id")
		return
	}
	segment, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if segment.Type != model.SegmentManual {
		badRequest(w, "membership can only be edited on manual segments")
		return
	}

	if err := h.Repo.RemoveMember(id, customerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": true, "customer_id": customerID})
}

func (h *SegmentHandler) ClearMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid segment id")
		return
	}
	segment, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if segment.Type != model.SegmentManual {
		badRequest(w, "membership can only be edited on manual segments")
		return
	}

	removed, err := h.Repo.ClearMembers(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}
