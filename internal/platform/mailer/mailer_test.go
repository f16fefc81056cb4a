package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/diagnosis/visitor-pass/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPicksTransport(t *testing.T) {
	assert.IsType(t, &DevMailer{}, New(config.EmailConfig{DevMode: true, SMTPHost: "smtp.local"}))
	assert.IsType(t, &MailerSend{}, New(config.EmailConfig{MailerSendKey: "key", From: "a@b.c"}))
	assert.IsType(t, &SMTPMailer{}, New(config.EmailConfig{SMTPHost: "smtp.local", SMTPPort: 1025}))
	assert.IsType(t, &DevMailer{}, New(config.EmailConfig{}))
}

func TestDevMailerRecords(t *testing.T) {
	d := NewDevMailer()
	_, err := d.Send(context.Background(), "jane@example.com", "Jane", "Hello", "hi", "<p>hi</p>")
	require.NoError(t, err)

	sent := d.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.com", sent[0].ToEmail)
	assert.Equal(t, "Hello", sent[0].Subject)
}

func TestBuildMIME(t *testing.T) {
	body := string(buildMIME("noreply@example.com", "jane@example.com", "Jane Smith", "Appointment Approved", "plain", "<b>html</b>"))

	assert.Contains(t, body, "To: Jane Smith <jane@example.com>")
	assert.Contains(t, body, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, body, "<b>html</b>")
	assert.True(t, strings.HasSuffix(body, "--\r\n"))
}

func TestMailerSendDisabledWithoutKey(t *testing.T) {
	m := NewMailerSend("", "Visitors", "")
	_, err := m.Send(context.Background(), "a@b.c", "", "s", "t", "")
	assert.Error(t, err)
}

func TestSMTPRejectsEmptyRecipient(t *testing.T) {
	m := NewSMTPMailer("localhost", 1025, "noreply@example.com", "", "", false)
	_, err := m.Send(context.Background(), "  ", "", "s", "t", "")
	assert.Error(t, err)
}
