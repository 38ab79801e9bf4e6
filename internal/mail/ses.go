package mail

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
)

type sesTransport struct {
	ses *ses.SES

	from    string
	charset string
}

// NewSesTransport sends through AWS SES. Region and credentials come from
// the session (env/instance profile).
func NewSesTransport(sess *session.Session, from string) Transport {
	return &sesTransport{
		ses:     ses.New(sess),
		from:    from,
		charset: "UTF-8",
	}
}

func (t *sesTransport) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = t.from
	}

	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(msg.To)},
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Html: &ses.Content{
					Charset: aws.String(t.charset),
					Data:    aws.String(msg.HTML),
				},
			},
			Subject: &ses.Content{
				Charset: aws.String(t.charset),
				Data:    aws.String(msg.Subject),
			},
		},
		Source: aws.String(from),
	}

	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []*string{aws.String(msg.ReplyTo)}
	}

	_, err := t.ses.SendEmailWithContext(ctx, input)
	return err
}
