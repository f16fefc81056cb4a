package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/visitor-pass/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("visitor-pass"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// NoopPublisher drops every event. Used when NATS_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NoopPublisher) Close() error { return nil }

// Emit publishes and logs failures. Events never fail the caller.
func Emit(ctx context.Context, p Publisher, subject string, data interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}

const (
	VisitorRegistered        = "visitor.registered"
	VisitorVerified          = "visitor.verified"
	AppointmentCreated       = "appointment.created"
	AppointmentStatusChanged = "appointment.status_changed"
	PassIssued               = "pass.issued"
	VisitorCheckedIn         = "visitor.checked_in"
	VisitorCheckedOut        = "visitor.checked_out"
)

type VisitorRegisteredEvent struct {
	VisitorID string    `json:"visitor_id"`
	Email     string    `json:"email"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type VisitorVerifiedEvent struct {
	Email      string    `json:"email"`
	Visitors   int64     `json:"visitors"`
	VerifiedAt time.Time `json:"verified_at"`
}

type AppointmentCreatedEvent struct {
	AppointmentID string    `json:"appointment_id"`
	VisitorID     string    `json:"visitor_id"`
	HostID        string    `json:"host_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time"`
}

type AppointmentStatusChangedEvent struct {
	AppointmentID string    `json:"appointment_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	ChangedBy     string    `json:"changed_by,omitempty"`
	ChangedAt     time.Time `json:"changed_at"`
}

type PassIssuedEvent struct {
	PassID        string    `json:"pass_id"`
	PassNumber    string    `json:"pass_number"`
	VisitorID     string    `json:"visitor_id"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	ValidFrom     time.Time `json:"valid_from"`
	ValidUntil    time.Time `json:"valid_until"`
}

type CheckEvent struct {
	CheckLogID string    `json:"check_log_id"`
	PassID     string    `json:"pass_id"`
	VisitorID  string    `json:"visitor_id"`
	By         string    `json:"by,omitempty"`
	At         time.Time `json:"at"`
}
