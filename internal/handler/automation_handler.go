package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextcampus/crm-backend/internal/model"
	"github.com/nextcampus/crm-backend/internal/queue"
	"github.com/nextcampus/crm-backend/internal/repository"

	"github.com/google/uuid"
)

// RunPublisher enqueues automation run requests.
type RunPublisher interface {
	Publish(job queue.RunJob) error
}

// AutomationHandler serves /api/automations.
type AutomationHandler struct {
	Repo      repository.AutomationRepositoryInterface
	Segments  repository.SegmentRepositoryInterface
	Templates repository.TemplateRepositoryInterface
	Tracker   repository.TrackerRepositoryInterface
	Runs      RunPublisher
}

type automationPayload struct {
	Name              string  `json:"name"`
	Description       *string `json:"description,omitempty"`
	CustomerSegmentID int     `json:"customer_segment_id"`
	MessageTemplateID int     `json:"message_template_id"`
	Cron              string  `json:"cron"`
	IsActive          bool    `json:"is_active"`
}

// validateAutomation checks the payload shape and that the referenced
// segment and template exist.
func (h *AutomationHandler) validateAutomation(p automationPayload) string {
	if p.Name == "" {
		return "name is required"
	}
	if p.Cron == "" {
		return "cron is required"
	}
	if _, err := h.Segments.GetByID(p.CustomerSegmentID); err != nil {
		return err.Error()
	}
	if _, err := h.Templates.GetByID(p.MessageTemplateID); err != nil {
		return err.Error()
	}
	return ""
}

func (h *AutomationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	params := repository.AutomationSearchParams{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active := v == "true"
		params.IsActive = &active
	}
	if v := r.URL.Query().Get("segment_id"); v != "" {
		params.SegmentID = atoiOrZero(v)
	}
	if v := r.URL.Query().Get("template_id"); v != "" {
		params.TemplateID = atoiOrZero(v)
	}

	automations, total, err := h.Repo.List(params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, automations, newPagination(page, limit, total))
}

func (h *AutomationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid automation id")
		return
	}
	automation, err := h.Repo.GetWithRelations(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, automation)
}

func (h *AutomationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload automationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if msg := h.validateAutomation(payload); msg != "" {
		badRequest(w, msg)
		return
	}

	automation := model.Automation{
		Name:              payload.Name,
		Description:       payload.Description,
		CustomerSegmentID: payload.CustomerSegmentID,
		MessageTemplateID: payload.MessageTemplateID,
		Cron:              payload.Cron,
		IsActive:          payload.IsActive,
	}
	if err := h.Repo.Create(&automation); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, automation)
}

func (h *AutomationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid automation id")
		return
	}

	var payload automationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if msg := h.validateAutomation(payload); msg != "" {
		badRequest(w, msg)
		return
	}

	automation := model.Automation{
		ID:                id,
		Name:              payload.Name,
		Description:       payload.Description,
		CustomerSegmentID: payload.CustomerSegmentID,
		MessageTemplateID: payload.MessageTemplateID,
		Cron:              payload.Cron,
		IsActive:          payload.IsActive,
	}
	if err := h.Repo.Update(&automation); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, automation)
}

func (h *AutomationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid automation id")
		return
	}
	if err := h.Repo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// Run enqueues one execution of the automation and returns 202. The
// automation must exist and be active; the runner re-checks both.
func (h *AutomationHandler) Run(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid automation id")
		return
	}
	automation, err := h.Repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !automation.IsActive {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "automation is inactive"})
		return
	}

	job := queue.RunJob{AutomationID: id, RunID: uuid.NewString()}
	if err := h.Runs.Publish(job); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"automation_id": id,
		"run_id":        job.RunID,
		"status":        "queued",
	})
}

func (h *AutomationHandler) TrackerEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid automation id")
		return
	}
	if _, err := h.Repo.GetByID(id); err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.Tracker.Entries(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

// ClearTracker wipes the delivery history so the next run re-sends to the
// whole segment.
func (h *AutomationHandler) ClearTracker(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid automation id")
		return
	}
	if _, err := h.Repo.GetByID(id); err != nil {
		writeError(w, err)
		return
	}
	removed, err := h.Tracker.Clear(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (h *AutomationHandler) Logs(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		badRequest(w, "invalid automation id")
		return
	}
	if _, err := h.Repo.GetByID(id); err != nil {
		writeError(w, err)
		return
	}

	page, limit := parsePagination(r)
	logs, total, err := h.Repo.ListLogs(id, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, logs, newPagination(page, limit, total))
}
