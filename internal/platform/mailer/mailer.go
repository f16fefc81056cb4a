// Package mailer delivers transactional email over SMTP or MailerSend.
package mailer

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/diagnosis/visitor-pass/pkg/config"
	"github.com/diagnosis/visitor-pass/pkg/logger"
)

// Service sends one message and returns the provider message id when there is one.
type Service interface {
	Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error)
}

// New picks a transport: MailerSend when an API key is set, SMTP when a host
// is set, and the dev mailer otherwise or when dev mode is forced.
func New(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		return NewDevMailer()
	case strings.TrimSpace(cfg.MailerSendKey) != "":
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.From)
	case strings.TrimSpace(cfg.SMTPHost) != "":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	default:
		return NewDevMailer()
	}
}

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// DevMailer logs messages instead of delivering them and keeps a copy for inspection.
type DevMailer struct {
	mu   sync.Mutex
	sent []Message
}

func NewDevMailer() *DevMailer { return &DevMailer{} }

func (d *DevMailer) Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error) {
	d.mu.Lock()
	d.sent = append(d.sent, Message{ToEmail: toEmail, ToName: toName, Subject: subject, Text: text, HTML: html})
	d.mu.Unlock()

	logger.InfoContext(ctx, "dev mail", slog.String("to", toEmail), slog.String("subject", subject))
	return "", nil
}

// Sent returns a snapshot of every message handed to the dev mailer.
func (d *DevMailer) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Message(nil), d.sent...)
}
