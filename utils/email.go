package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// ErrEmailDisabled is returned when no SendGrid key is configured
var ErrEmailDisabled = errors.New("email delivery is not configured")

// Mailer sends transactional emails through SendGrid
type Mailer struct {
	apiKey    string
	fromEmail string
	fromName  string
	log       *zap.SugaredLogger
}

// NewMailer creates a Mailer. An empty apiKey yields a mailer that reports ErrEmailDisabled.
func NewMailer(apiKey, fromEmail, fromName string, log *zap.SugaredLogger) *Mailer {
	return &Mailer{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		log:       log.With("client", "SendGrid"),
	}
}

// SendEmail sends an email using SendGrid
func (m *Mailer) SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error {
	if m == nil || m.apiKey == "" {
		return ErrEmailDisabled
	}

	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, textContent, htmlContent)
	client := sendgrid.NewSendClient(m.apiKey)

	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		m.log.Warnw("send email", "to", toEmail, "error", err)
		return err
	}

	if response.StatusCode >= 400 {
		m.log.Warnw("SendGrid API error", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	m.log.Debugw("email sent", "to", toEmail, "status", response.StatusCode)
	return nil
}
