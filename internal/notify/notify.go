// Package notify turns appointment and check-in events into visitor and host emails.
// Every send is best effort: failures are logged and counted, never returned.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/visitor-pass/internal/metrics"
	"github.com/diagnosis/visitor-pass/internal/platform/mailer"
	"github.com/diagnosis/visitor-pass/pkg/logger"
)

const (
	defaultLocation = "Main Office"
	sendTimeout     = 15 * time.Second
	dateLayout      = "Monday, January 2, 2006"
)

type Dispatcher struct {
	mailer      mailer.Service
	frontendURL string
	async       bool

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(m mailer.Service, frontendURL string, async bool) *Dispatcher {
	return &Dispatcher{
		mailer:      m,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		async:       async,
	}
}

// AppointmentNotice carries what the visitor-facing appointment emails show.
type AppointmentNotice struct {
	VisitorName  string
	VisitorEmail string
	HostName     string
	Date         time.Time
	Time         string
	Purpose      string
	Location     string
	Notes        string
}

type ArrivalNotice struct {
	HostName    string
	HostEmail   string
	VisitorName string
	Company     string
	Location    string
	CheckInTime time.Time
}

func location(l string) string {
	if strings.TrimSpace(l) == "" {
		return defaultLocation
	}
	return l
}

func (d *Dispatcher) PassURL(passID string) string {
	return d.frontendURL + "/passes/" + passID
}

func (d *Dispatcher) AppointmentCreated(ctx context.Context, n AppointmentNotice) {
	data := map[string]any{
		"VisitorName": n.VisitorName,
		"HostName":    n.HostName,
		"Date":        n.Date.Format(dateLayout),
		"Time":        n.Time,
		"Purpose":     n.Purpose,
		"Location":    location(n.Location),
	}
	text := fmt.Sprintf("Dear %s,\n\nYour appointment with %s on %s at %s has been scheduled and is awaiting approval.\n\nVisitor Management Team",
		n.VisitorName, n.HostName, n.Date.Format(dateLayout), n.Time)
	d.dispatch(ctx, "appointment_created", n.VisitorEmail, n.VisitorName, "Appointment Confirmation", "created", data, text)
}

// AppointmentApproved links to the pass when passID is known.
func (d *Dispatcher) AppointmentApproved(ctx context.Context, n AppointmentNotice, passID string) {
	passURL := ""
	if passID != "" {
		passURL = d.PassURL(passID)
	}
	data := map[string]any{
		"VisitorName": n.VisitorName,
		"HostName":    n.HostName,
		"Date":        n.Date.Format(dateLayout),
		"Time":        n.Time,
		"Location":    location(n.Location),
		"PassURL":     passURL,
	}
	text := fmt.Sprintf("Dear %s,\n\nYour appointment with %s on %s at %s has been approved.\n%s\n\nVisitor Management Team",
		n.VisitorName, n.HostName, n.Date.Format(dateLayout), n.Time, passURL)
	d.dispatch(ctx, "appointment_approved", n.VisitorEmail, n.VisitorName, "Appointment Approved - Visitor Pass Ready", "approved", data, text)
}

func (d *Dispatcher) AppointmentRejected(ctx context.Context, n AppointmentNotice) {
	d.cancelled(ctx, "appointment_rejected", "declined", n)
}

func (d *Dispatcher) AppointmentCancelled(ctx context.Context, n AppointmentNotice) {
	d.cancelled(ctx, "appointment_cancelled", "cancelled", n)
}

func (d *Dispatcher) cancelled(ctx context.Context, kind, outcome string, n AppointmentNotice) {
	data := map[string]any{
		"VisitorName": n.VisitorName,
		"HostName":    n.HostName,
		"Date":        n.Date.Format(dateLayout),
		"Time":        n.Time,
		"Outcome":     outcome,
		"Reason":      n.Notes,
	}
	text := fmt.Sprintf("Dear %s,\n\nYour appointment with %s on %s at %s has been %s.\n\nVisitor Management Team",
		n.VisitorName, n.HostName, n.Date.Format(dateLayout), n.Time, outcome)
	d.dispatch(ctx, kind, n.VisitorEmail, n.VisitorName, "Appointment Cancelled", "cancelled", data, text)
}

func (d *Dispatcher) VisitorArrival(ctx context.Context, n ArrivalNotice) {
	at := n.CheckInTime.Format("Jan 2, 2006 3:04 PM")
	data := map[string]any{
		"HostName":    n.HostName,
		"VisitorName": n.VisitorName,
		"Company":     n.Company,
		"CheckInTime": at,
		"Location":    location(n.Location),
	}
	text := fmt.Sprintf("Dear %s,\n\n%s has checked in at %s.\n\nVisitor Management Team", n.HostName, n.VisitorName, at)
	d.dispatch(ctx, "visitor_arrival", n.HostEmail, n.HostName, "Visitor Arrival - Action Required", "arrival", data, text)
}

func (d *Dispatcher) OTPCode(ctx context.Context, email, code string, ttl time.Duration) {
	minutes := int(ttl.Minutes())
	data := map[string]any{"Code": code, "Minutes": minutes}
	text := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
	d.dispatch(ctx, "otp", email, "", "Your Visitor Verification Code", "otp", data, text)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind, to, name, subject, tmpl string, data any, text string) {
	if strings.TrimSpace(to) == "" {
		logger.WarnContext(ctx, "notification skipped: no recipient", slog.String("kind", kind))
		return
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		logger.ErrorContext(ctx, "notification template failed", slog.String("kind", kind), slog.String("error", err.Error()))
		metrics.Notification(kind, err)
		return
	}
	html := buf.String()

	send := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		id, err := d.mailer.Send(ctx, to, name, subject, text, html)
		metrics.Notification(kind, err)
		if err != nil {
			logger.ErrorContext(ctx, "notification failed",
				slog.String("kind", kind), slog.String("to", to), slog.String("error", err.Error()))
			return
		}
		logger.InfoContext(ctx, "notification sent", slog.String("kind", kind), slog.String("to", to), slog.String("message_id", id))
	}

	if !d.async || !d.track() {
		send(ctx)
		return
	}
	go func() {
		defer d.wg.Done()
		send(context.WithoutCancel(ctx))
	}()
}

// track registers an asynchronous send. It reports false once Close has started.
func (d *Dispatcher) track() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.wg.Add(1)
	return true
}

// Close waits for in-flight asynchronous sends. Sends dispatched afterwards run synchronously.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
