// internal/model/customer.go
package model

import (
	"encoding/json"
	"time"
)

type Customer struct {
	ID              int        `db:"id" json:"id"`
	LmsLeadID       *string    `db:"lms_lead_id" json:"lms_lead_id,omitempty"`
	FirstName       *string    `db:"first_name" json:"first_name,omitempty"`
	LastName        *string    `db:"last_name" json:"last_name,omitempty"`
	Email           string     `db:"email" json:"email"`
	Mobile          *string    `db:"mobile" json:"mobile,omitempty"`
	SourceCreatedAt *time.Time `db:"source_created_at" json:"source_created_at,omitempty"`
	SourceUpdatedAt *time.Time `db:"source_updated_at" json:"source_updated_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// FieldType is the declared type of a customer attribute value, used to
// round-trip the generically stored value.
type FieldType string

const (
	FieldNumeric   FieldType = "numeric"
	FieldString    FieldType = "string"
	FieldDate      FieldType = "date"
	FieldTimestamp FieldType = "timestamp"
	FieldBoolean   FieldType = "boolean"
	FieldArray     FieldType = "array"
)

// CustomerAttribute is one dynamic field of a customer. The value is stored
// as JSON; (customer_id, field_name) is unique.
type CustomerAttribute struct {
	ID              int             `db:"id" json:"id"`
	CustomerID      int             `db:"customer_id" json:"customer_id"`
	FieldType       FieldType       `db:"field_type" json:"field_type"`
	FieldName       string          `db:"field_name" json:"field_name"`
	FieldValue      json.RawMessage `db:"field_value" json:"field_value"`
	SourceCreatedAt *time.Time      `db:"source_created_at" json:"source_created_at,omitempty"`
	SourceUpdatedAt *time.Time      `db:"source_updated_at" json:"source_updated_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}

type CustomerWithAttributes struct {
	Customer
	Attributes []CustomerAttribute `json:"attributes"`
}
