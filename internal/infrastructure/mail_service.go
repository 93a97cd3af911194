package infrastructure

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	MailProviderSendGrid = "sendgrid"
	MailProviderResend   = "resend"
	MailProviderLog      = "log"
)

type Mail struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// NewMailer picks the mail provider by name. The log provider only records
// the mail and is meant for development.
func NewMailer(provider, apiKey, sender string, logger zerolog.Logger) (Mailer, error) {
	switch provider {
	case MailProviderSendGrid:
		return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), from: mail.NewEmail("", sender)}, nil
	case MailProviderResend:
		return &ResendMailer{client: resend.NewClient(apiKey), from: sender}, nil
	case MailProviderLog, "":
		return &LogMailer{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", provider)
	}
}

type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (s *SendGridMailer) Send(ctx context.Context, m Mail) error {
	message := mail.NewSingleEmail(s.from, m.Subject, mail.NewEmail("", m.To), m.Text, m.HTML)
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send mail with sendgrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("send mail with sendgrid: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

func (r *ResendMailer) Send(ctx context.Context, m Mail) error {
	params := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{m.To},
		Subject: m.Subject,
		Text:    m.Text,
		Html:    m.HTML,
	}
	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send mail with resend: %w", err)
	}
	return nil
}

type LogMailer struct {
	logger zerolog.Logger
}

func (l *LogMailer) Send(_ context.Context, m Mail) error {
	l.logger.Info().Str("to", m.To).Str("subject", m.Subject).Msg(m.Text)
	return nil
}
