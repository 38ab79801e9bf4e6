package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextcampus/crm-backend/internal/model"
	"github.com/nextcampus/crm-backend/internal/repository"
)

// EventHandler serves /api/events, the funnel event history.
type EventHandler struct {
	Repo      repository.FunnelEventRepositoryInterface
	Customers repository.CustomerRepositoryInterface
}

type eventPayload struct {
	CustomerID int             `json:"customer_id"`
	FunnelType string          `json:"funnel_type"`
	FromStage  *string         `json:"from_stage,omitempty"`
	ToStage    string          `json:"to_stage"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	params := repository.FunnelEventSearchParams{
		CustomerEmail: r.URL.Query().Get("customer_email"),
		FunnelType:    r.URL.Query().Get("funnel_type"),
		FromStage:     r.URL.Query().Get("from_stage"),
		ToStage:       r.URL.Query().Get("to_stage"),
		Page:          page,
		Limit:         limit,
	}
	if v := r.URL.Query().Get("customer_id"); v != "" {
		params.CustomerID = atoiOrZero(v)
	}

	events, total, err := h.Repo.List(params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, events, newPagination(page, limit, total))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid event id")
		return
	}
	event, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if event == nil {
		notFound(w, "funnel event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if payload.CustomerID <= 0 {
		badRequest(w, "customer_id is required")
		return
	}
	if payload.FunnelType == "" || payload.ToStage == "" {
		badRequest(w, "funnel_type and to_stage are required")
		return
	}
	if _, err := h.Customers.GetByID(payload.CustomerID); err != nil {
		writeError(w, err)
		return
	}

	event := model.FunnelEvent{
		CustomerID: payload.CustomerID,
		FunnelType: payload.FunnelType,
		FromStage:  payload.FromStage,
		ToStage:    payload.ToStage,
		Metadata:   payload.Metadata,
	}
	if err := h.Repo.Create(&event); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}
