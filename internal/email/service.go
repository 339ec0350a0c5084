package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/eventease/server/internal/config"
	"github.com/eventease/server/internal/metrics"
	"github.com/rs/zerolog"
)

// Service sends the registration emails over SMTP with STARTTLS. When
// disabled it logs the message instead of sending, so local development
// needs no mail relay.
type Service struct {
	config    config.SMTPConfig
	templates *template.Template
	logger    zerolog.Logger
}

const confirmationTemplate = `
<p>Hello {{.Name}},</p>
<p>You have successfully registered for <strong>{{.EventTitle}}</strong>.</p>
<p>Your registration is pending approval; we will let you know once it is confirmed.</p>
<p>Thank you for your registration!<br>The EventEase Team</p>
`

const approvalTemplate = `
<p>Hello {{.Name}},</p>
<p>Your registration for <strong>{{.EventTitle}}</strong> has been approved.</p>
<p>See you there!<br>The EventEase Team</p>
`

type messageData struct {
	Name       string
	EventTitle string
}

func NewService(cfg config.SMTPConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender address in config: %w", err)
		}
	}

	templates := template.New("email")
	template.Must(templates.New("confirmation").Parse(confirmationTemplate))
	template.Must(templates.New("approval").Parse(approvalTemplate))

	return &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}, nil
}

// SendRegistrationConfirmation emails the attendee after a registration is
// stored. Callers treat a failure as a warning, never as a rollback.
func (s *Service) SendRegistrationConfirmation(ctx context.Context, to, name, eventTitle string) error {
	return s.sendTemplated(ctx, "confirmation", to, "Event Registration Confirmation", messageData{
		Name:       name,
		EventTitle: eventTitle,
	})
}

// SendApprovalNotice emails the attendee after an admin approves their
// registration.
func (s *Service) SendApprovalNotice(ctx context.Context, to, username, eventTitle string) error {
	return s.sendTemplated(ctx, "approval", to, "Event Registration Approved", messageData{
		Name:       username,
		EventTitle: eventTitle,
	})
}

func (s *Service) sendTemplated(ctx context.Context, name, to, subject string, data messageData) error {
	if err := validateAddress(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("template", name).
			Str("to", to).
			Str("subject", subject).
			Msg("email disabled, skipping send")
		return nil
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s template: %w", name, err)
	}

	if err := s.send(ctx, to, subject, body.String()); err != nil {
		metrics.EmailsTotal.WithLabelValues(name, "error").Inc()
		return err
	}

	metrics.EmailsTotal.WithLabelValues(name, "sent").Inc()
	s.logger.Info().Str("template", name).Str("to", to).Msg("email sent")
	return nil
}

// validateAddress checks the address format and rejects header injection
// attempts.
func validateAddress(address string) error {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(parsed.Address, "\r\n") {
		return fmt.Errorf("email address contains newline characters")
	}
	return nil
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := buildMessage(s.config.From, to, subject, htmlBody)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	defer func() { _ = client.Close() }()

	tlsConfig := &tls.Config{
		ServerName: s.config.Host,
		MinVersion: tls.VersionTLS12,
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("start TLS: %w", err)
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data writer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("quit SMTP connection: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	return msg.Bytes()
}
