package mail

import (
	"github.com/nextcampus/crm-backend/internal/config"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/mailgun/mailgun-go/v3"
	"github.com/pkg/errors"
)

// NewTransport builds the transport named by MAIL_PROVIDER.
func NewTransport(cfg config.Config) (Transport, error) {
	switch cfg.MailProvider {
	case "resend":
		options := []ResendOption{}
		if cfg.MailReplyTo != "" {
			options = append(options, SetResendReplyTo(cfg.MailReplyTo))
		}
		return NewResendTransport(cfg.ResendAPIKey, cfg.MailFrom, options...), nil

	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
			return nil, errors.New("mailgun requires MAILGUN_DOMAIN and MAILGUN_API_KEY")
		}
		mg := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey)
		return NewMailgunTransport(mg, cfg.MailFrom, cfg.MailReplyTo), nil

	case "ses":
		sess, err := session.NewSession()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create aws session")
		}
		return NewSesTransport(sess, cfg.MailFrom), nil

	default:
		return nil, errors.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}
