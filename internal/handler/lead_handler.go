package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextcampus/crm-backend/internal/model"
	"github.com/nextcampus/crm-backend/internal/repository"
)

// LeadHandler serves /api/leads.
type LeadHandler struct {
	Repo repository.LeadRepositoryInterface
}

type leadPayload struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Email      string  `json:"email"`
	Mobile     *string `json:"mobile,omitempty"`
	Source     *string `json:"source,omitempty"`
	Stage      string  `json:"stage,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	params := repository.LeadSearchParams{
		Search:     r.URL.Query().Get("search"),
		Stage:      model.LeadStage(r.URL.Query().Get("stage")),
		AssignedTo: r.URL.Query().Get("assigned_to"),
		Page:       page,
		Limit:      limit,
	}

	leads, total, err := h.Repo.List(params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, leads, newPagination(page, limit, total))
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid lead id")
		return
	}
	lead, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload leadPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if payload.Email == "" {
		badRequest(w, "email is required")
		return
	}
	stage := model.LeadStage(payload.Stage)
	if payload.Stage != "" && !model.ValidLeadStage(stage) {
		badRequest(w, "invalid lead stage")
		return
	}

	lead := model.Lead{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Mobile:     payload.Mobile,
		Source:     payload.Source,
		Stage:      stage,
		AssignedTo: payload.AssignedTo,
		Notes:      payload.Notes,
	}
	if err := h.Repo.Create(&lead); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid lead id")
		return
	}

	var payload leadPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if payload.Email == "" {
		badRequest(w, "email is required")
		return
	}
	stage := model.LeadStage(payload.Stage)
	if !model.ValidLeadStage(stage) {
		badRequest(w, "invalid lead stage")
		return
	}

	lead := model.Lead{
		ID:         id,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Mobile:     payload.Mobile,
		Source:     payload.Source,
		Stage:      stage,
		AssignedTo: payload.AssignedTo,
		Notes:      payload.Notes,
	}
	if err := h.Repo.Update(&lead); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid lead id")
		return
	}
	if err := h.Repo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func (h *LeadHandler) BulkStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		LeadIDs []int  `json:"lead_ids"`
		Stage   string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if len(payload.LeadIDs) == 0 {
		badRequest(w, "lead_ids is required")
		return
	}
	stage := model.LeadStage(payload.Stage)
	if !model.ValidLeadStage(stage) {
		badRequest(w, "invalid lead stage")
		return
	}

	updated, err := h.Repo.BulkUpdateStage(payload.LeadIDs, stage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

func (h *LeadHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		LeadIDs    []int  `json:"lead_ids"`
		AssignedTo string `json:"assigned_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if len(payload.LeadIDs) == 0 {
		badRequest(w, "lead_ids is required")
		return
	}
	if payload.AssignedTo == "" {
		badRequest(w, "assigned_to is required")
		return
	}

	updated, err := h.Repo.BulkAssign(payload.LeadIDs, payload.AssignedTo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}
