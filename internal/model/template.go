// internal/model/template.go
package model

import "time"

type TemplateType string

const (
	TemplateEmail    TemplateType = "email"
	TemplateWhatsapp TemplateType = "whatsapp"
)

type MessageTemplate struct {
	ID             int          `db:"id" json:"id"`
	Name           string       `db:"name" json:"name"`
	Type           TemplateType `db:"type" json:"type"`
	TemplatingType string       `db:"templating_type" json:"templating_type"`
	Subject        *string      `db:"subject" json:"subject,omitempty"`
	Message        string       `db:"message" json:"message"`
	FromEmail      *string      `db:"from_email" json:"from_email,omitempty"`
	ReplyTo        *string      `db:"reply_to" json:"reply_to,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time   `db:"updated_at" json:"updated_at,omitempty"`
}
