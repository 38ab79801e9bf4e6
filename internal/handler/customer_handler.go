package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/nextcampus/crm-backend/internal/model"
	"github.com/nextcampus/crm-backend/internal/repository"
	"github.com/nextcampus/crm-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

// CustomerHandler serves /api/customers.
type CustomerHandler struct {
	Repo     repository.CustomerRepositoryInterface
	Importer *service.CSVImporter
}

type attributePayload struct {
	FieldName  string          `json:"field_name"`
	FieldType  model.FieldType `json:"field_type,omitempty"`
	FieldValue json.RawMessage `json:"field_value"`
}

type customerPayload struct {
	LmsLeadID       *string            `json:"lms_lead_id,omitempty"`
	FirstName       *string            `json:"first_name,omitempty"`
	LastName        *string            `json:"last_name,omitempty"`
	Email           string             `json:"email"`
	Mobile          *string            `json:"mobile,omitempty"`
	SourceCreatedAt *time.Time         `json:"source_created_at,omitempty"`
	SourceUpdatedAt *time.Time         `json:"source_updated_at,omitempty"`
	Attributes      []attributePayload `json:"attributes,omitempty"`
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	params := repository.CustomerSearchParams{
		Search:    r.URL.Query().Get("search"),
		Email:     r.URL.Query().Get("email"),
		LmsLeadID: r.URL.Query().Get("lms_lead_id"),
		Page:      page,
		Limit:     limit,
	}

	customers, total, err := h.Repo.List(params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, customers, newPagination(page, limit, total))
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid customer id")
		return
	}

	customer, err := h.Repo.GetWithAttributes(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// Upsert creates or updates a customer keyed on email, then upserts any
// attributes in the payload.
func (h *CustomerHandler) Upsert(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Repo.Upsert(&customer); err != nil {
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
		if err := h.Repo.UpsertAttribute(&model.CustomerAttribute{
			CustomerID: customer.ID,
			FieldType:  fieldType,
			FieldName:  attr.FieldName,
			FieldValue: attr.FieldValue,
		}); err != nil {
			writeError(w, err)
			return
		}
	}

	result, err := h.Repo.GetWithAttributes(customer.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid customer id")
		return
	}

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
		ID:        id,
		LmsLeadID: payload.LmsLeadID,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Mobile:    payload.Mobile,
	}
	if err := h.Repo.Update(&customer); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.Repo.GetWithAttributes(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid customer id")
		return
	}
	if err := h.Repo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func (h *CustomerHandler) DeleteAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid customer id")
		return
	}
	field := chi.URLParam(r, "field")
	if field == "" {
		badRequest(w, "attribute field name is required")
		return
	}
	if err := h.Repo.DeleteAttribute(id, field); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "field_name": field})
}

// Upload ingests a multipart CSV file under the "file" form field.
func (h *CustomerHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file upload")
		return
	}
	defer file.Close()

	result, err := h.Importer.Import(file)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// inferAttributeType classifies a JSON value when the payload omits the
// declared type. Strings additionally distinguish dates and timestamps.
func inferAttributeType(raw json.RawMessage) model.FieldType {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return model.FieldString
	}
	switch v := value.(type) {
	case bool:
		return model.FieldBoolean
	case float64:
		return model.FieldNumeric
	case []any:
		return model.FieldArray
	case string:
		if _, err := time.Parse("2006-01-02", v); err == nil {
			return model.FieldDate
		}
		if _, err := time.Parse(time.RFC3339, v); err == nil {
			return model.FieldTimestamp
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return model.FieldNumeric
		}
		return model.FieldString
	default:
		return model.FieldString
	}
}
