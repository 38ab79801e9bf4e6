package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"
	"github.com/nextcampus/crm-backend/internal/model"
	"github.com/nextcampus/crm-backend/internal/queue"
	"github.com/nextcampus/crm-backend/internal/repository"
	"github.com/nextcampus/crm-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// fakeAutomationRepo backs the automation handler tests with two canned
// automations: 1 is active, 2 is inactive.
type fakeAutomationRepo struct{}

func (r *fakeAutomationRepo) GetByID(id int) (*model.Automation, error) {
	switch id {
	case 1:
		return &model.Automation{ID: 1, Name: "welcome", CustomerSegmentID: 1, MessageTemplateID: 1, Cron: "0 9 * * *", IsActive: true}, nil
	case 2:
		return &model.Automation{ID: 2, Name: "paused", CustomerSegmentID: 1, MessageTemplateID: 1, Cron: "0 9 * * *", IsActive: false}, nil
	}
	return nil, appErrors.NewAutomationNotFound(id)
}

func (r *fakeAutomationRepo) List(params repository.AutomationSearchParams) ([]model.AutomationWithRelations, int, error) {
	return []model.AutomationWithRelations{}, 0, nil
}

func (r *fakeAutomationRepo) GetWithRelations(id int) (*model.AutomationWithRelations, error) {
	a, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	return &model.AutomationWithRelations{Automation: *a}, nil
}

func (r *fakeAutomationRepo) ListActive() ([]model.Automation, error)   { return nil, nil }
func (r *fakeAutomationRepo) Create(a *model.Automation) error          { a.ID = 10; return nil }
func (r *fakeAutomationRepo) Update(a *model.Automation) error          { return nil }
func (r *fakeAutomationRepo) Delete(id int) error                       { return nil }

func (r *fakeAutomationRepo) CreateLog(automationID int, status model.LogStatus) (*model.AutomationLog, error) {
	return &model.AutomationLog{ID: 1, AutomationID: automationID, Status: status}, nil
}

func (r *fakeAutomationRepo) FinalizeLog(logID int, status model.LogStatus, processed int, errorMessage *string) error {
	return nil
}

func (r *fakeAutomationRepo) ListLogs(automationID, page, limit int) ([]model.AutomationLog, int, error) {
	return []model.AutomationLog{}, 0, nil
}

func (r *fakeAutomationRepo) GetLog(logID int) (*model.AutomationLogWithDetails, error) {
	return nil, nil
}

func (r *fakeAutomationRepo) RecentLogs(limit int) ([]model.AutomationLogWithDetails, error) {
	return []model.AutomationLogWithDetails{}, nil
}

type fakeTrackerRepo struct {
	cleared int
}

func (r *fakeTrackerRepo) TrackedCustomerIDs(automationID int) ([]int, error) { return nil, nil }
func (r *fakeTrackerRepo) AlreadySent(automationID, customerID int) (bool, error) {
	return false, nil
}
func (r *fakeTrackerRepo) RecordSent(automationID, customerID int) (bool, error) {
	return true, nil
}
func (r *fakeTrackerRepo) Entries(automationID int) ([]model.TrackerEntry, error) {
	return []model.TrackerEntry{}, nil
}
func (r *fakeTrackerRepo) Clear(automationID int) (int, error) {
	r.cleared++
	return 5, nil
}

type fakePublisher struct {
	jobs []queue.RunJob
	err  error
}

func (p *fakePublisher) Publish(job queue.RunJob) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func newAutomationRouter(h *AutomationHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/automations/{id}/run", h.Run)
	r.Delete("/api/automations/{id}/tracker", h.ClearTracker)
	return r
}

func TestRunEnqueuesJob(t *testing.T) {
	publisher := &fakePublisher{}
	h := &AutomationHandler{Repo: &fakeAutomationRepo{}, Tracker: &fakeTrackerRepo{}, Runs: publisher}
	router := newAutomationRouter(h)

	r := httptest.NewRequest(http.MethodPost, "/api/automations/1/run", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, publisher.jobs, 1)
	assert.Equal(t, 1, publisher.jobs[0].AutomationID)
	assert.NotEmpty(t, publisher.jobs[0].RunID)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "queued", body["status"])
}

func TestRunInactiveAutomationConflict(t *testing.T) {
	publisher := &fakePublisher{}
	h := &AutomationHandler{Repo: &fakeAutomationRepo{}, Tracker: &fakeTrackerRepo{}, Runs: publisher}
	router := newAutomationRouter(h)

	r := httptest.NewRequest(http.MethodPost, "/api/automations/2/run", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, publisher.jobs)
}

func TestRunUnknownAutomationNotFound(t *testing.T) {
	h := &AutomationHandler{Repo: &fakeAutomationRepo{}, Tracker: &fakeTrackerRepo{}, Runs: &fakePublisher{}}
	router := newAutomationRouter(h)

	r := httptest.NewRequest(http.MethodPost, "/api/automations/99/run", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearTracker(t *testing.T) {
	tracker := &fakeTrackerRepo{}
	h := &AutomationHandler{Repo: &fakeAutomationRepo{}, Tracker: tracker, Runs: &fakePublisher{}}
	router := newAutomationRouter(h)

	r := httptest.NewRequest(http.MethodDelete, "/api/automations/1/tracker", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, tracker.cleared)
	assert.Contains(t, w.Body.String(), `"removed":5`)
}

// fakeSegmentRepo serves the segment membership endpoint tests; segment 1
// is manual with members 1..5.
type fakeSegmentRepo struct{}

func (r *fakeSegmentRepo) GetByID(id int) (*model.CustomerSegment, error) {
	if id != 1 {
		return nil, appErrors.NewSegmentNotFound(id)
	}
	return &model.CustomerSegment{ID: 1, Name: "manual", Type: model.SegmentManual}, nil
}

func (r *fakeSegmentRepo) List(params repository.SegmentSearchParams) ([]model.CustomerSegmentWithCount, int, error) {
	return nil, 0, nil
}
func (r *fakeSegmentRepo) Create(s *model.CustomerSegment) error { return nil }
func (r *fakeSegmentRepo) Update(s *model.CustomerSegment) error { return nil }
func (r *fakeSegmentRepo) Delete(id int) error                   { return nil }
func (r *fakeSegmentRepo) ExecuteSelectionSQL(query string) ([]int, error) {
	return nil, nil
}
func (r *fakeSegmentRepo) GetMemberIDs(segmentID int) ([]int, error) {
	return []int{1, 2, 3, 4, 5}, nil
}
func (r *fakeSegmentRepo) AddMember(segmentID, customerID int) (bool, error) {
	return customerID%2 == 1, nil
}
func (r *fakeSegmentRepo) RemoveMember(segmentID, customerID int) error { return nil }
func (r *fakeSegmentRepo) ClearMembers(segmentID int) (int, error)      { return 5, nil }

type fakeCustomerRepo struct{}

func (r *fakeCustomerRepo) GetByIDs(ids []int) ([]model.Customer, error) {
	customers := []model.Customer{}
	for _, id := range ids {
		customers = append(customers, model.Customer{ID: id, Email: "c@example.com"})
	}
	return customers, nil
}

func (r *fakeCustomerRepo) List(params repository.CustomerSearchParams) ([]model.Customer, int, error) {
	return nil, 0, nil
}
func (r *fakeCustomerRepo) GetByID(id int) (*model.Customer, error) {
	return nil, appErrors.NewCustomerNotFound(id)
}
func (r *fakeCustomerRepo) GetByEmail(email string) (*model.Customer, error) { return nil, nil }
func (r *fakeCustomerRepo) Upsert(c *model.Customer) error                   { return nil }
func (r *fakeCustomerRepo) Update(c *model.Customer) error                   { return nil }
func (r *fakeCustomerRepo) Delete(id int) error                              { return nil }
func (r *fakeCustomerRepo) GetAttributes(customerID int) ([]model.CustomerAttribute, error) {
	return nil, nil
}
func (r *fakeCustomerRepo) UpsertAttribute(a *model.CustomerAttribute) error { return nil }
func (r *fakeCustomerRepo) DeleteAttribute(customerID int, fieldName string) error {
	return nil
}
func (r *fakeCustomerRepo) GetWithAttributes(customerID int) (*model.CustomerWithAttributes, error) {
	return nil, appErrors.NewCustomerNotFound(customerID)
}

func TestSegmentMembersPaginated(t *testing.T) {
	repo := &fakeSegmentRepo{}
	h := &SegmentHandler{
		Repo:      repo,
		Customers: &fakeCustomerRepo{},
		Resolver:  service.NewSegmentResolver(repo, nil),
	}

	router := chi.NewRouter()
	router.Get("/api/segments/{id}/customers", h.Members)

	r := httptest.NewRequest(http.MethodGet, "/api/segments/1/customers?page=2&limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data       []model.Customer `json:"data"`
		Pagination Pagination       `json:"pagination"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 3, body.Data[0].ID)
	assert.Equal(t, 5, body.Pagination.Total)
	assert.Equal(t, 3, body.Pagination.TotalPages)
}

func TestSegmentAddMembersCountsSkipped(t *testing.T) {
	repo := &fakeSegmentRepo{}
	h := &SegmentHandler{Repo: repo, Customers: &fakeCustomerRepo{}, Resolver: service.NewSegmentResolver(repo, nil)}

	router := chi.NewRouter()
	router.Post("/api/segments/{id}/customers", h.AddMembers)

	payload := strings.NewReader(`{"customer_ids": [1, 2, 3]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/segments/1/customers", payload)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]int
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body["added"])
	assert.Equal(t, 1, body["skipped"])
}
