package mail

import (
	"context"

	"github.com/mailgun/mailgun-go/v3"
	"github.com/pkg/errors"
)

type mailgunTransport struct {
	mg mailgun.Mailgun

	from    string
	replyTo string
}

// NewMailgunTransport sends through Mailgun.
func NewMailgunTransport(mg mailgun.Mailgun, from, replyTo string) Transport {
	return &mailgunTransport{
		mg:      mg,
		from:    from,
		replyTo: replyTo,
	}
}

func (t *mailgunTransport) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = t.from
	}

	m := t.mg.NewMessage(from, msg.Subject, "", msg.To)
	m.SetHtml(msg.HTML)

	if replyTo := msg.ReplyTo; replyTo != "" {
		m.SetReplyTo(replyTo)
	} else if t.replyTo != "" {
		m.SetReplyTo(t.replyTo)
	}

	_, _, err := t.mg.Send(ctx, m)
	return errors.Wrap(err, "failed to send message via mailgun")
}
