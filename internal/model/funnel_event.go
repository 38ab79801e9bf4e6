// internal/model/funnel_event.go
package model

import (
	"encoding/json"
	"time"
)

// FunnelEvent records one stage transition of a customer within a funnel.
// These rows feed the built-in segment handlers.
type FunnelEvent struct {
	ID         int             `db:"id" json:"id"`
	CustomerID int             `db:"customer_id" json:"customer_id"`
	FunnelType string          `db:"funnel_type" json:"funnel_type"`
	FromStage  *string         `db:"from_stage" json:"from_stage,omitempty"`
	ToStage    string          `db:"to_stage" json:"to_stage"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type FunnelEventWithCustomer struct {
	FunnelEvent
	CustomerEmail string `json:"customer_email"`
}
