// internal/model/automation.go
package model

import "time"

// Automation pairs one segment with one template on a CRON schedule. The
// schedule string is owned by the external trigger and not validated here
// beyond being non-empty.
type Automation struct {
	ID                int        `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Description       *string    `db:"description" json:"description,omitempty"`
	CustomerSegmentID int        `db:"customer_segment_id" json:"customer_segment_id"`
	MessageTemplateID int        `db:"message_template_id" json:"message_template_id"`
	Cron              string     `db:"cron" json:"cron"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// AutomationWithRelations carries the display names of the referenced
// segment and template for list views.
type AutomationWithRelations struct {
	Automation
	SegmentName  *string       `json:"segment_name,omitempty"`
	TemplateName *string       `json:"template_name,omitempty"`
	TemplateType *TemplateType `json:"template_type,omitempty"`
}

type LogStatus string

const (
	LogStarted   LogStatus = "started"
	LogCompleted LogStatus = "completed"
	LogFailed    LogStatus = "failed"
)

// AutomationLog is one execution attempt. A row is created with status
// started before any sending and updated exactly once to its terminal
// status; it is never mutated after completion.
type AutomationLog struct {
	ID                 int        `db:"id" json:"id"`
	AutomationID       int        `db:"automation_id" json:"automation_id"`
	Status             LogStatus  `db:"status" json:"status"`
	CustomersProcessed int        `db:"customers_processed" json:"customers_processed"`
	ErrorMessage       *string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt          time.Time  `db:"started_at" json:"started_at"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

type AutomationLogWithDetails struct {
	AutomationLog
	AutomationName string `json:"automation_name"`
}

// TrackerEntry records one successful delivery for an (automation, customer)
// pair. The pair is unique; inserts are insert-or-ignore.
type TrackerEntry struct {
	ID            int       `db:"id" json:"id"`
	AutomationID  int       `db:"automation_id" json:"automation_id"`
	CustomerID    int       `db:"customer_id" json:"customer_id"`
	MessageSentAt time.Time `db:"message_sent_at" json:"message_sent_at"`
}
