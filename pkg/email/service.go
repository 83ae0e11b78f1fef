package email

import (
	"context"
	"fmt"

	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// DefaultHost is the SendGrid API host.
const DefaultHost = "https://api.sendgrid.com"

// Service handles email sending
type Service struct {
	fromEmail   string
	fromName    string
	sendGridKey string
	useSendGrid bool
	host        string
	logger      logger.Logger
}

// NewService creates a new email service
// If sendGridAPIKey is provided, emails will be sent via SendGrid
// Otherwise, emails will be logged (development mode)
func NewService(fromEmail, fromName, sendGridAPIKey string, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "email")

	useSendGrid := sendGridAPIKey != ""
	if useSendGrid {
		log.Info("✅ Email service initialized with SendGrid")
	} else {
		log.Warn("⚠️  Email service in log-only mode (set SENDGRID_API_KEY for production)")
	}

	return &Service{
		fromEmail:   fromEmail,
		fromName:    fromName,
		sendGridKey: sendGridAPIKey,
		useSendGrid: useSendGrid,
		host:        DefaultHost,
		logger:      log,
	}
}

// WithHost points the service at another SendGrid-compatible host.
func (s *Service) WithHost(host string) *Service {
	s.host = host
	return s
}

// SendRawEmail sends an email with custom subject and body content.
// Uses SendGrid in production, logs in development.
func (s *Service) SendRawEmail(ctx context.Context, toEmail, toName, subject, htmlBody, plainTextBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, htmlBody, plainTextBody)
	}

	s.logger.Info("📧 Email NOT sent (development mode)",
		"subject", subject,
		"to", toEmail,
		"from", s.fromEmail)
	return nil
}

// sendViaSendGrid sends email using SendGrid API
func (s *Service) sendViaSendGrid(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainTextBody, htmlBody)

	request := sendgrid.GetRequest(s.sendGridKey, "/v3/mail/send", s.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.API(request)
	if err != nil {
		s.logger.Error("❌ SendGrid error", "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("❌ SendGrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	s.logger.Info("✅ Email sent", "to", toEmail, "status", response.StatusCode)
	return nil
}
