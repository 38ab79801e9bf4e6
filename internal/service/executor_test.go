package service

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"
	"github.com/nextcampus/crm-backend/internal/mail"
	"github.com/nextcampus/crm-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

type fakeAutomationStore struct {
	automation *model.Automation
	getErr     error

	logCreated   bool
	logFinalized bool
	finalStatus  model.LogStatus
	finalCount   int
	finalErrMsg  *string
}

func (s *fakeAutomationStore) GetByID(id int) (*model.Automation, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.automation, nil
}

func (s *fakeAutomationStore) CreateLog(automationID int, status model.LogStatus) (*model.AutomationLog, error) {
	s.logCreated = true
	return &model.AutomationLog{ID: 99, AutomationID: automationID, Status: status}, nil
}

func (s *fakeAutomationStore) FinalizeLog(logID int, status model.LogStatus, processed int, errorMessage *string) error {
	s.logFinalized = true
	s.finalStatus = status
	s.finalCount = processed
	s.finalErrMsg = errorMessage
	return nil
}

type fakeSegmentByID struct {
	segment *model.CustomerSegment
	err     error
}

func (s *fakeSegmentByID) GetByID(id int) (*model.CustomerSegment, error) {
	return s.segment, s.err
}

type fakeTemplateByID struct {
	template *model.MessageTemplate
	err      error
}

func (s *fakeTemplateByID) GetByID(id int) (*model.MessageTemplate, error) {
	return s.template, s.err
}

type fakeCustomerStore struct {
	customers  []model.Customer
	attributes map[int][]model.CustomerAttribute
}

func (s *fakeCustomerStore) GetByIDs(ids []int) ([]model.Customer, error) {
	result := []model.Customer{}
	for _, c := range s.customers {
		for _, id := range ids {
			if c.ID == id {
				result = append(result, c)
			}
		}
	}
	return result, nil
}

func (s *fakeCustomerStore) GetAttributes(customerID int) ([]model.CustomerAttribute, error) {
	return s.attributes[customerID], nil
}

type fakeTracker struct {
	tracked  []int
	recorded []int
}

func (t *fakeTracker) TrackedCustomerIDs(automationID int) ([]int, error) {
	return t.tracked, nil
}

func (t *fakeTracker) RecordSent(automationID, customerID int) (bool, error) {
	t.recorded = append(t.recorded, customerID)
	return true, nil
}

type fakeTransport struct {
	sent    []mail.Message
	failFor map[string]error
}

func (t *fakeTransport) Send(ctx context.Context, msg mail.Message) error {
	if err, ok := t.failFor[msg.To]; ok {
		return err
	}
	t.sent = append(t.sent, msg)
	return nil
}

func activeAutomation() *model.Automation {
	return &model.Automation{
		ID: 1, Name: "welcome", CustomerSegmentID: 2, MessageTemplateID: 3,
		Cron: "0 9 * * *", IsActive: true,
	}
}

func emailTemplate() *model.MessageTemplate {
	subject := "Hello {{firstName}}"
	from := "hello@yournextcampus.com"
	return &model.MessageTemplate{
		ID: 3, Name: "welcome", Type: model.TemplateEmail,
		Subject: &subject, Message: "Hi {{firstName}}!", FromEmail: &from,
	}
}

func newTestExecutor(auto *fakeAutomationStore, customers *fakeCustomerStore, tracker *fakeTracker, transport *fakeTransport, memberIDs []int) *Executor {
	return &Executor{
		Automations: auto,
		Segments:    &fakeSegmentByID{segment: &model.CustomerSegment{ID: 2, Type: model.SegmentManual}},
		Templates:   &fakeTemplateByID{template: emailTemplate()},
		Customers:   customers,
		Tracker:     tracker,
		Resolver:    NewSegmentResolver(&fakeSegmentStore{memberIDs: memberIDs}, nil),
		Mail:        transport,
		SendDelay:   time.Millisecond,
	}
}

func TestExecutorRunHappyPath(t *testing.T) {
	auto := &fakeAutomationStore{automation: activeAutomation()}
	customers := &fakeCustomerStore{
		customers: []model.Customer{
			{ID: 1, FirstName: strp("Ann"), Email: "ann@example.com"},
			{ID: 2, FirstName: strp("Ben"), Email: "ben@example.com"},
		},
	}
	tracker := &fakeTracker{}
	transport := &fakeTransport{}

	executor := newTestExecutor(auto, customers, tracker, transport, []int{1, 2})
	result, err := executor.Run(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, model.LogCompleted, result.Status)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Failed)

	assert.Len(t, transport.sent, 2)
	assert.Equal(t, "Hello Ann", transport.sent[0].Subject)
	assert.Contains(t, transport.sent[0].HTML, "Hi Ann!")
	assert.Equal(t, "hello@yournextcampus.com", transport.sent[0].From)

	assert.Equal(t, []int{1, 2}, tracker.recorded)
	assert.True(t, auto.logFinalized)
	assert.Equal(t, model.LogCompleted, auto.finalStatus)
	assert.Equal(t, 2, auto.finalCount)
	assert.Nil(t, auto.finalErrMsg)
}

func TestExecutorSkipsTrackedCustomers(t *testing.T) {
	auto := &fakeAutomationStore{automation: activeAutomation()}
	customers := &fakeCustomerStore{
		customers: []model.Customer{
			{ID: 1, Email: "ann@example.com"},
			{ID: 2, Email: "ben@example.com"},
		},
	}
	tracker := &fakeTracker{tracked: []int{1}}
	transport := &fakeTransport{}

	executor := newTestExecutor(auto, customers, tracker, transport, []int{1, 2})
	result, err := executor.Run(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, transport.sent, 1)
	assert.Equal(t, "ben@example.com", transport.sent[0].To)
}

func TestExecutorAllTrackedCompletesWithoutSending(t *testing.T) {
	auto := &fakeAutomationStore{automation: activeAutomation()}
	tracker := &fakeTracker{tracked: []int{1, 2}}
	transport := &fakeTransport{}

	executor := newTestExecutor(auto, &fakeCustomerStore{}, tracker, transport, []int{1, 2})
	result, err := executor.Run(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, model.LogCompleted, result.Status)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, transport.sent)
	assert.True(t, auto.logFinalized)
}

func TestExecutorPartialFailureStillCompletes(t *testing.T) {
	auto := &fakeAutomationStore{automation: activeAutomation()}
	customers := &fakeCustomerStore{
		customers: []model.Customer{
			{ID: 1, Email: "ann@example.com"},
			{ID: 2, Email: "bad@example.com"},
			{ID: 3, Email: "cat@example.com"},
		},
	}
	tracker := &fakeTracker{}
	transport := &fakeTransport{failFor: map[string]error{
		"bad@example.com": errors.New("mailbox full"),
	}}

	executor := newTestExecutor(auto, customers, tracker, transport, []int{1, 2, 3})
	result, err := executor.Run(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, model.LogCompleted, result.Status)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)

	// The failed recipient is never tracked, so the next run retries them.
	assert.Equal(t, []int{1, 3}, tracker.recorded)

	assert.NotNil(t, auto.finalErrMsg)
	assert.Contains(t, *auto.finalErrMsg, "bad@example.com: mailbox full")
}

func TestExecutorAllFailuresMarksRunFailed(t *testing.T) {
	auto := &fakeAutomationStore{automation: activeAutomation()}
	customers := &fakeCustomerStore{
		customers: []model.Customer{{ID: 1, Email: "ann@example.com"}},
	}
	transport := &fakeTransport{failFor: map[string]error{
		"ann@example.com": errors.New("provider down"),
	}}

	executor := newTestExecutor(auto, customers, &fakeTracker{}, transport, []int{1})
	result, err := executor.Run(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, model.LogFailed, result.Status)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, model.LogFailed, auto.finalStatus)
}

func TestExecutorInactiveAutomationAbortsBeforeLog(t *testing.T) {
	automation := activeAutomation()
	automation.IsActive = false
	auto := &fakeAutomationStore{automation: automation}

	executor := newTestExecutor(auto, &fakeCustomerStore{}, &fakeTracker{}, &fakeTransport{}, nil)
	_, err := executor.Run(context.Background(), 1)

	var inactive *appErrors.ErrAutomationInactive
	assert.ErrorAs(t, err, &inactive)
	assert.False(t, auto.logCreated)
}

func TestExecutorMissingAutomationAbortsBeforeLog(t *testing.T) {
	auto := &fakeAutomationStore{getErr: appErrors.NewAutomationNotFound(42)}

	executor := newTestExecutor(auto, &fakeCustomerStore{}, &fakeTracker{}, &fakeTransport{}, nil)
	_, err := executor.Run(context.Background(), 42)

	var notFound *appErrors.ErrAutomationNotFound
	assert.ErrorAs(t, err, &notFound)
	assert.False(t, auto.logCreated)
}

func TestExecutorNonEmailTemplateAbortsBeforeLog(t *testing.T) {
	auto := &fakeAutomationStore{automation: activeAutomation()}
	executor := newTestExecutor(auto, &fakeCustomerStore{}, &fakeTracker{}, &fakeTransport{}, nil)
	executor.Templates = &fakeTemplateByID{template: &model.MessageTemplate{
		ID: 3, Type: model.TemplateWhatsapp, Message: "hi",
	}}

	_, err := executor.Run(context.Background(), 1)

	assert.Error(t, err)
	assert.False(t, auto.logCreated)
}

func TestExecutorSegmentFailureFinalizesLogFailed(t *testing.T) {
	auto := &fakeAutomationStore{automation: activeAutomation()}
	executor := newTestExecutor(auto, &fakeCustomerStore{}, &fakeTracker{}, &fakeTransport{}, nil)

	query := "SELECT broken"
	executor.Segments = &fakeSegmentByID{segment: &model.CustomerSegment{
		ID: 2, Type: model.SegmentSQL, SelectionSQL: &query,
	}}
	executor.Resolver = NewSegmentResolver(&fakeSegmentStore{sqlErr: errors.New("boom")}, nil)

	_, err := executor.Run(context.Background(), 1)

	assert.Error(t, err)
	assert.True(t, auto.logCreated)
	assert.True(t, auto.logFinalized)
	assert.Equal(t, model.LogFailed, auto.finalStatus)
	assert.Equal(t, 0, auto.finalCount)
}

func TestExecutorDefaultSubject(t *testing.T) {
	auto := &fakeAutomationStore{automation: activeAutomation()}
	customers := &fakeCustomerStore{
		customers: []model.Customer{{ID: 1, Email: "ann@example.com"}},
	}
	transport := &fakeTransport{}

	executor := newTestExecutor(auto, customers, &fakeTracker{}, transport, []int{1})
	executor.Templates = &fakeTemplateByID{template: &model.MessageTemplate{
		ID: 3, Type: model.TemplateEmail, Message: "hi",
	}}

	_, err := executor.Run(context.Background(), 1)

	assert.NoError(t, err)
	assert.Len(t, transport.sent, 1)
	assert.Equal(t, "Message from Your Next Campus", transport.sent[0].Subject)
}
