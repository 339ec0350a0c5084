package email

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eventease/server/internal/config"
)

func TestValidateAddress_Valid(t *testing.T) {
	tests := []string{
		"user@example.com",
		"test.user@example.com",
		"user+tag@example.co.uk",
		"User Name <user@example.com>",
	}

	for _, email := range tests {
		t.Run(email, func(t *testing.T) {
			require.NoError(t, validateAddress(email))
		})
	}
}

func TestValidateAddress_Invalid(t *testing.T) {
	tests := []struct {
		email       string
		description string
	}{
		{"", "empty string"},
		{"notanemail", "no @ symbol"},
		{"@example.com", "missing local part"},
		{"user@", "missing domain"},
		{"user @example.com", "space before @"},
		{"user@@example.com", "double @"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require.Error(t, validateAddress(tt.email))
		})
	}
}

func TestValidateAddress_HeaderInjection(t *testing.T) {
	tests := []struct {
		email       string
		description string
	}{
		{"victim@example.com\r\nBcc: attacker@evil.com", "CRLF with Bcc injection"},
		{"test@example.com\nCc: hacker@evil.com", "LF with Cc injection"},
		{"user@domain.com\r\nSubject: Phishing", "CRLF with Subject injection"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require.Error(t, validateAddress(tt.email))
		})
	}
}

func TestNewService_RejectsInvalidSender(t *testing.T) {
	_, err := NewService(config.SMTPConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "not-an-address",
	}, zerolog.Nop())
	require.Error(t, err)
}

func TestSendDisabledSkips(t *testing.T) {
	svc, err := NewService(config.SMTPConfig{Enabled: false}, zerolog.Nop())
	require.NoError(t, err)

	// With sending disabled no SMTP connection is attempted, so this
	// succeeds without a reachable relay.
	require.NoError(t, svc.SendRegistrationConfirmation(context.Background(), "user@example.com", "Alice", "Go Conference"))
	require.NoError(t, svc.SendApprovalNotice(context.Background(), "user@example.com", "alice", "Go Conference"))
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	svc, err := NewService(config.SMTPConfig{Enabled: false}, zerolog.Nop())
	require.NoError(t, err)

	err = svc.SendRegistrationConfirmation(context.Background(), "bad\r\nrecipient@example.com", "Alice", "Go Conference")
	require.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@eventease.test", "user@example.com", "Hello", "<p>Hi</p>"))
	require.Contains(t, msg, "From: noreply@eventease.test\r\n")
	require.Contains(t, msg, "To: user@example.com\r\n")
	require.Contains(t, msg, "Subject: Hello\r\n")
	require.Contains(t, msg, "Content-Type: text/html; charset=UTF-8\r\n")
	require.Contains(t, msg, "\r\n\r\n<p>Hi</p>")
}
