package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextcampus/crm-backend/internal/model"
	"github.com/nextcampus/crm-backend/internal/repository"
	"github.com/nextcampus/crm-backend/internal/service"
)

// TemplateHandler serves /api/templates.
type TemplateHandler struct {
	Repo      repository.TemplateRepositoryInterface
	Customers repository.CustomerRepositoryInterface
}

type templatePayload struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Subject   *string `json:"subject,omitempty"`
	Message   string  `json:"message"`
	FromEmail *string `json:"from_email,omitempty"`
	ReplyTo   *string `json:"reply_to,omitempty"`
}

func validateTemplate(p templatePayload) (model.TemplateType, string) {
	if p.Name == "" {
		return "", "name is required"
	}
	if p.Message == "" {
		return "", "message is required"
	}
	switch model.TemplateType(p.Type) {
	case model.TemplateEmail:
		if p.Subject == nil || *p.Subject == "" {
			return "", "email templates require a subject"
		}
		return model.TemplateEmail, ""
	case model.TemplateWhatsapp:
		return model.TemplateWhatsapp, ""
	default:
		return "", "type must be one of email, whatsapp"
	}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	params := repository.TemplateSearchParams{
		Search: r.URL.Query().Get("search"),
		Type:   model.TemplateType(r.URL.Query().Get("type")),
		Page:   page,
		Limit:  limit,
	}

	templates, total, err := h.Repo.List(params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, templates, newPagination(page, limit, total))
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid template id")
		return
	}
	template, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload templatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	templateType, msg := validateTemplate(payload)
	if msg != "" {
		badRequest(w, msg)
		return
	}

	template := model.MessageTemplate{
		Name:      payload.Name,
		Type:      templateType,
		Subject:   payload.Subject,
		Message:   payload.Message,
		FromEmail: payload.FromEmail,
		ReplyTo:   payload.ReplyTo,
	}
	if err := h.Repo.Create(&template); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid template id")
		return
	}

	var payload templatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	templateType, msg := validateTemplate(payload)
	if msg != "" {
		badRequest(w, msg)
		return
	}

	template := model.MessageTemplate{
		ID:             id,
		Name:           payload.Name,
		Type:           templateType,
		TemplatingType: "mjml",
		Subject:        payload.Subject,
		Message:        payload.Message,
		FromEmail:      payload.FromEmail,
		ReplyTo:        payload.ReplyTo,
	}
	if err := h.Repo.Update(&template); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid template id")
		return
	}
	if err := h.Repo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// Preview renders the template against a concrete customer's variables, or
// sample variables when no customer_id is given.
func (h *TemplateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid template id")
		return
	}
	template, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		CustomerID *int `json:"customer_id,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			badRequest(w, "invalid request body: "+err.Error())
			return
		}
	}

	vars := service.SampleVariables()
	if payload.CustomerID != nil {
		customer, err := h.Customers.GetByID(*payload.CustomerID)
		if err != nil {
			writeError(w, err)
			return
		}
		attributes, err := h.Customers.GetAttributes(customer.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		vars = service.BuildVariables(*customer, attributes)
	}

	subject := ""
	if template.Subject != nil {
		subject = service.ReplaceVariables(*template.Subject, vars)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subject": subject,
		"html":    service.RenderTemplate(template.Message, vars),
	})
}
