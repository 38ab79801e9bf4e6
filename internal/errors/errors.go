// internal/errors/errors.go
package appErrors

import "fmt"

// ErrAutomationNotFound is returned when an automation ID does not exist.
type ErrAutomationNotFound struct {
	AutomationID int
}

func (e *ErrAutomationNotFound) Error() string {
	return fmt.Sprintf("automation with ID %d not found", e.AutomationID)
}

func NewAutomationNotFound(id int) error {
	return &ErrAutomationNotFound{AutomationID: id}
}

// ErrAutomationInactive is returned when the executor is invoked for an
// automation whose is_active flag is false. The trigger should never do
// this; the executor re-checks defensively.
type ErrAutomationInactive struct {
	AutomationID int
}

func (e *ErrAutomationInactive) Error() string {
	return fmt.Sprintf("automation with ID %d is inactive", e.AutomationID)
}

func NewAutomationInactive(id int) error {
	return &ErrAutomationInactive{AutomationID: id}
}

// ErrSegmentNotFound is returned when a segment ID does not exist.
type ErrSegmentNotFound struct {
	SegmentID int
}

func (e *ErrSegmentNotFound) Error() string {
	return fmt.Sprintf("segment with ID %d not found", e.SegmentID)
}

func NewSegmentNotFound(id int) error {
	return &ErrSegmentNotFound{SegmentID: id}
}

// ErrTemplateNotFound is returned when a message template ID does not exist.
type ErrTemplateNotFound struct {
	TemplateID int
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("template with ID %d not found", e.TemplateID)
}

func NewTemplateNotFound(id int) error {
	return &ErrTemplateNotFound{TemplateID: id}
}

// ErrCustomerNotFound is returned when a customer ID does not exist.
type ErrCustomerNotFound struct {
	CustomerID int
}

func (e *ErrCustomerNotFound) Error() string {
	return fmt.Sprintf("customer with ID %d not found", e.CustomerID)
}

func NewCustomerNotFound(id int) error {
	return &ErrCustomerNotFound{CustomerID: id}
}

// ErrLeadNotFound is returned when a lead ID does not exist.
type ErrLeadNotFound struct {
	LeadID int
}

func (e *ErrLeadNotFound) Error() string {
	return fmt.Sprintf("lead with ID %d not found", e.LeadID)
}

func NewLeadNotFound(id int) error {
	return &ErrLeadNotFound{LeadID: id}
}

// SegmentExecutionError indicates a misconfigured sql-type segment: its
// stored query failed outright. This must propagate to the caller.
type SegmentExecutionError struct {
	SegmentID int
	Err       error
}

func (e *SegmentExecutionError) Error() string {
	return fmt.Sprintf("failed to execute segment %d selection SQL: %v", e.SegmentID, e.Err)
}

func (e *SegmentExecutionError) Unwrap() error { return e.Err }

func NewSegmentExecutionError(segmentID int, err error) error {
	return &SegmentExecutionError{SegmentID: segmentID, Err: err}
}

// HandlerNotFoundError indicates a function-type segment referencing a
// handler name that was never registered.
type HandlerNotFoundError struct {
	Handler string
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("segment handler %q is not registered", e.Handler)
}

func NewHandlerNotFound(name string) error {
	return &HandlerNotFoundError{Handler: name}
}
