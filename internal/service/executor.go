package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"
	"github.com/nextcampus/crm-backend/internal/mail"
	"github.com/nextcampus/crm-backend/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultSendDelay is the pause between individual sends, keeping one
	// run under the mail provider's throughput limit.
	DefaultSendDelay = 100 * time.Millisecond

	// maxErrorLines bounds the error summary stored on the log row.
	maxErrorLines = 10

	// maxErrorLineLen truncates a single recipient's failure reason.
	maxErrorLineLen = 200

	defaultSubject = "Message from Your Next Campus"
)

// ExecutorAutomationStore is what the executor needs from the automation
// repository.
type ExecutorAutomationStore interface {
	GetByID(id int) (*model.Automation, error)
	CreateLog(automationID int, status model.LogStatus) (*model.AutomationLog, error)
	FinalizeLog(logID int, status model.LogStatus, customersProcessed int, errorMessage *string) error
}

type ExecutorSegmentStore interface {
	GetByID(id int) (*model.CustomerSegment, error)
}

type ExecutorTemplateStore interface {
	GetByID(id int) (*model.MessageTemplate, error)
}

type ExecutorCustomerStore interface {
	GetByIDs(ids []int) ([]model.Customer, error)
	GetAttributes(customerID int) ([]model.CustomerAttribute, error)
}

// ExecutorTracker is the delivery tracker as seen by one run.
type ExecutorTracker interface {
	TrackedCustomerIDs(automationID int) ([]int, error)
	RecordSent(automationID, customerID int) (bool, error)
}

// Executor runs one automation end to end: resolve the segment, drop
// already-tracked customers, then render and send one message per customer
// sequentially with inter-send pacing. Runs for different automations may
// execute concurrently; each touches only rows scoped to its own
// automation ID.
type Executor struct {
	Automations ExecutorAutomationStore
	Segments    ExecutorSegmentStore
	Templates   ExecutorTemplateStore
	Customers   ExecutorCustomerStore
	Tracker     ExecutorTracker
	Resolver    *SegmentResolver
	Mail        mail.Transport
	Logger      logrus.FieldLogger

	// SendDelay overrides DefaultSendDelay when non-zero.
	SendDelay time.Duration
}

// RunResult summarizes one execution; the AutomationLog row is the durable
// record.
type RunResult struct {
	LogID     int             `json:"log_id"`
	Status    model.LogStatus `json:"status"`
	Processed int             `json:"processed"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
}

// Run executes the automation. Configuration errors (missing or inactive
// automation, missing segment/template, non-email template) abort before
// any log row exists. Failures after the started row is written finalize
// that row as failed. A single recipient's send failure never aborts the
// batch.
func (e *Executor) Run(ctx context.Context, automationID int) (*RunResult, error) {
	logger := e.logger().WithField("automation_id", automationID)

	automation, err := e.Automations.GetByID(automationID)
	if err != nil {
		return nil, err
	}
	if !automation.IsActive {
		return nil, appErrors.NewAutomationInactive(automationID)
	}

	segment, err := e.Segments.GetByID(automation.CustomerSegmentID)
	if err != nil {
		return nil, err
	}
	template, err := e.Templates.GetByID(automation.MessageTemplateID)
	if err != nil {
		return nil, err
	}
	if template.Type != model.TemplateEmail {
		return nil, fmt.Errorf("automation %d references a %s template; only email templates can be delivered", automationID, template.Type)
	}

	// The started row goes in before any sending so a crash mid-run still
	// leaves an auditable record.
	runLog, err := e.Automations.CreateLog(automationID, model.LogStarted)
	if err != nil {
		return nil, err
	}
	logger = logger.WithField("log_id", runLog.ID)

	customerIDs, err := e.Resolver.Resolve(ctx, segment)
	if err != nil {
		e.finalize(logger, runLog.ID, model.LogFailed, 0, strPtr(truncate(err.Error(), maxErrorLineLen)))
		return nil, err
	}

	tracked, err := e.Tracker.TrackedCustomerIDs(automationID)
	if err != nil {
		e.finalize(logger, runLog.ID, model.LogFailed, 0, strPtr(truncate(err.Error(), maxErrorLineLen)))
		return nil, err
	}

	remaining := excludeIDs(customerIDs, tracked)
	skipped := len(customerIDs) - len(remaining)

	if len(remaining) == 0 {
		// Everyone has been reached already (or the segment is empty).
		// Not an error.
		e.finalize(logger, runLog.ID, model.LogCompleted, 0, nil)
		logger.WithField("skipped", skipped).Info("no eligible customers, completing")
		return &RunResult{LogID: runLog.ID, Status: model.LogCompleted, Skipped: skipped}, nil
	}

	customers, err := e.Customers.GetByIDs(remaining)
	if err != nil {
		e.finalize(logger, runLog.ID, model.LogFailed, 0, strPtr(truncate(err.Error(), maxErrorLineLen)))
		return nil, err
	}

	delay := e.SendDelay
	if delay <= 0 {
		delay = DefaultSendDelay
	}

	processed := 0
	failed := 0
	errorLines := []string{}

	for i, customer := range customers {
		if i > 0 {
			pause(ctx, delay)
		}

		if err := e.sendOne(ctx, automation, template, customer); err != nil {
			failed++
			errorLines = append(errorLines, fmt.Sprintf("%s: %s", customer.Email, truncate(err.Error(), maxErrorLineLen)))
			logger.WithField("email", customer.Email).WithError(err).Error("failed to send")
			continue
		}

		processed++
		if _, err := e.Tracker.RecordSent(automation.ID, customer.ID); err != nil {
			// The message already went out; losing the tracker row only
			// weakens duplicate prevention for this one customer. Never
			// abort the batch for it.
			logger.WithField("customer_id", customer.ID).WithError(err).Error("sent but failed to record in tracker")
		}
	}

	status := model.LogCompleted
	if failed == len(customers) && len(customers) > 0 {
		status = model.LogFailed
	}

	var errorMessage *string
	if len(errorLines) > 0 {
		if len(errorLines) > maxErrorLines {
			errorLines = errorLines[:maxErrorLines]
		}
		errorMessage = strPtr(strings.Join(errorLines, "; "))
	}

	e.finalize(logger, runLog.ID, status, processed, errorMessage)

	logger.WithFields(logrus.Fields{
		"processed": processed,
		"failed":    failed,
		"skipped":   skipped,
		"status":    status,
	}).Info("automation run finished")

	return &RunResult{
		LogID:     runLog.ID,
		Status:    status,
		Processed: processed,
		Failed:    failed,
		Skipped:   skipped,
	}, nil
}

func (e *Executor) sendOne(ctx context.Context, automation *model.Automation, template *model.MessageTemplate, customer model.Customer) error {
	attributes, err := e.Customers.GetAttributes(customer.ID)
	if err != nil {
		return err
	}

	vars := BuildVariables(customer, attributes)

	subjectSource := defaultSubject
	if template.Subject != nil && *template.Subject != "" {
		subjectSource = *template.Subject
	}
	subject := ReplaceVariables(subjectSource, vars)
	html := RenderTemplate(template.Message, vars)

	return e.Mail.Send(ctx, mail.Message{
		To:      customer.Email,
		Subject: subject,
		HTML:    html,
		From:    strOrEmpty(template.FromEmail),
		ReplyTo: strOrEmpty(template.ReplyTo),
	})
}

func (e *Executor) finalize(logger logrus.FieldLogger, logID int, status model.LogStatus, processed int, errorMessage *string) {
	if err := e.Automations.FinalizeLog(logID, status, processed, errorMessage); err != nil {
		logger.WithError(err).Error("failed to finalize automation log")
	}
}

func (e *Executor) logger() logrus.FieldLogger {
	if e.Logger != nil {
		return e.Logger
	}
	return logrus.StandardLogger()
}

func excludeIDs(ids, exclude []int) []int {
	if len(exclude) == 0 {
		return ids
	}
	skip := make(map[int]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	remaining := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	return remaining
}

func pause(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func strPtr(s string) *string { return &s }
