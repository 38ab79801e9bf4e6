// internal/model/segment.go
package model

import "time"

type SegmentType string

const (
	SegmentManual   SegmentType = "manual"
	SegmentSQL      SegmentType = "sql"
	SegmentFunction SegmentType = "function"
)

// CustomerSegment is a named, resolvable set of customers. Exactly one of
// the strategy payloads is populated: manual segments own rows in
// customer_segment_customer_list, sql segments carry SelectionSQL and
// function segments carry HandlerFunction.
type CustomerSegment struct {
	ID              int         `db:"id" json:"id"`
	Name            string      `db:"name" json:"name"`
	Description     *string     `db:"description" json:"description,omitempty"`
	Type            SegmentType `db:"type" json:"type"`
	SelectionSQL    *string     `db:"selection_sql" json:"selection_sql,omitempty"`
	HandlerFunction *string     `db:"handler_function" json:"handler_function,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time  `db:"updated_at" json:"updated_at,omitempty"`
}

// CustomerSegmentWithCount adds the manual membership count for list views.
type CustomerSegmentWithCount struct {
	CustomerSegment
	CustomerCount int `json:"customer_count"`
}
