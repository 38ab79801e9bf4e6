package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextcampus/crm-backend/internal/model"
	"github.com/nextcampus/crm-backend/internal/repository"
)

// ExternalHandler serves the API-key authenticated ingest surface under
// /api/external. Upstream systems push customers and funnel events here;
// they identify customers by email, never by internal ID.
type ExternalHandler struct {
	Customers repository.CustomerRepositoryInterface
	Events    repository.FunnelEventRepositoryInterface
}

// UpsertCustomer ingests one customer with attributes, keyed on email.
func (h *ExternalHandler) UpsertCustomer(w http.ResponseWriter, r *http.Request) {
	var payload customerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if payload.Email == "" {
		badRequest(w, "email is required")
		return
	}

	customer := model.Customer{
		LmsLeadID:       payload.LmsLeadID,
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Email:           payload.Email,
		Mobile:          payload.Mobile,
		SourceCreatedAt: payload.SourceCreatedAt,
		SourceUpdatedAt: payload.SourceUpdatedAt,
	}
	if err := h.Customers.Upsert(&customer); err != nil {
		writeError(w, err)
		return
	}

	for _, attr := range payload.Attributes {
		if attr.FieldName == "" {
			badRequest(w, "attribute field_name is required")
			return
		}
		fieldType := attr.FieldType
		if fieldType == "" {
			fieldType = inferAttributeType(attr.FieldValue)
		}
		if err := h.Customers.UpsertAttribute(&model.CustomerAttribute{
			CustomerID: customer.ID,
			FieldType:  fieldType,
			FieldName:  attr.FieldName,
			FieldValue: attr.FieldValue,
		}); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": customer.ID, "email": customer.Email})
}

// CreateEvent ingests one funnel event addressed by customer email.
func (h *ExternalHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email      string          `json:"email"`
		FunnelType string          `json:"funnel_type"`
		FromStage  *string         `json:"from_stage,omitempty"`
		ToStage    string          `json:"to_stage"`
		Metadata   json.RawMessage `json:"metadata,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if payload.Email == "" {
		badRequest(w, "email is required")
		return
	}
	if payload.FunnelType == "" || payload.ToStage == "" {
		badRequest(w, "funnel_type and to_stage are required")
		return
	}

	customer, err := h.Customers.GetByEmail(payload.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if customer == nil {
		notFound(w, "no customer with that email")
		return
	}

	event := model.FunnelEvent{
		CustomerID: customer.ID,
		FunnelType: payload.FunnelType,
		FromStage:  payload.FromStage,
		ToStage:    payload.ToStage,
		Metadata:   payload.Metadata,
	}
	if err := h.Events.Create(&event); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}
