// Package mail sends rendered messages through an external email provider.
package mail

import "context"

// Message is one fully rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	From    string // falls back to the transport's configured default
	ReplyTo string
}

// Transport delivers one message to one recipient. A non-nil error is a
// delivery failure for that recipient only.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}
