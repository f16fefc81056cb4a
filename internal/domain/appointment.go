package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/visitor-pass/internal/utils"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusApproved  AppointmentStatus = "approved"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// AllStatuses lists every status in display order.
var AllStatuses = []AppointmentStatus{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}

// transitions is the single source of truth for appointment status changes.
// Statuses missing from the map are terminal.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCancelled, StatusCompleted},
	StatusRejected:  {StatusCancelled},
	StatusCompleted: {StatusCancelled},
}

// Decision reports whether s is only reachable through the approve and reject endpoints.
func (s AppointmentStatus) Decision() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s AppointmentStatus) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// CheckTransition returns nil when from may move to to.
func CheckTransition(from, to AppointmentStatus) error {
	if !to.Valid() {
		return ErrValidation.WithMessage("Invalid status").
			WithDetails([]FieldError{{Field: "status", Message: "Invalid status"}})
	}
	if from.CanTransitionTo(to) {
		return nil
	}
	return ErrInvalidStatusTransition.
		WithMessage(fmt.Sprintf("Cannot change appointment status from %s to %s", from, to)).
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

type Appointment struct {
	ID             string            `json:"id"`
	VisitorID      string            `json:"visitorId"`
	HostID         string            `json:"hostId"`
	ScheduledDate  time.Time         `json:"scheduledDate"`
	ScheduledTime  string            `json:"scheduledTime"`
	Purpose        string            `json:"purpose"`
	Status         AppointmentStatus `json:"status"`
	Location       string            `json:"location,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	ApprovedBy     *string           `json:"approvedById,omitempty"`
	ApprovedAt     *time.Time        `json:"approvedAt,omitempty"`
	OrganizationID *string           `json:"organization,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type CreateAppointmentRequest struct {
	Visitor       string  `json:"visitor"`
	Host          string  `json:"host"`
	ScheduledDate string  `json:"scheduledDate"`
	ScheduledTime string  `json:"scheduledTime"`
	Purpose       string  `json:"purpose"`
	Location      string  `json:"location,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Organization  *string `json:"organization,omitempty"`
}

func (r *CreateAppointmentRequest) Normalize() {
	r.Visitor = utils.NormalizeString(r.Visitor)
	r.Host = utils.NormalizeString(r.Host)
	r.ScheduledTime = utils.NormalizeString(r.ScheduledTime)
	r.Purpose = utils.NormalizeString(r.Purpose)
	r.Location = utils.NormalizeString(r.Location)
	r.Organization = utils.NormalizeOptional(r.Organization)
}

// ToAppointment validates the request and builds a pending appointment.
func (r *CreateAppointmentRequest) ToAppointment() (*Appointment, error) {
	var v Validator
	v.Required("visitor", r.Visitor)
	v.Required("host", r.Host)
	v.Required("scheduledDate", r.ScheduledDate)
	v.Required("scheduledTime", r.ScheduledTime)
	v.Required("purpose", r.Purpose)
	var date time.Time
	if r.ScheduledDate != "" {
		d, err := ParseDate(r.ScheduledDate)
		v.Check(err == nil, "scheduledDate", "Invalid scheduled date")
		date = d
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Appointment{
		VisitorID:      r.Visitor,
		HostID:         r.Host,
		ScheduledDate:  date,
		ScheduledTime:  r.ScheduledTime,
		Purpose:        r.Purpose,
		Status:         StatusPending,
		Location:       r.Location,
		Notes:          r.Notes,
		OrganizationID: r.Organization,
	}, nil
}

type UpdateAppointmentRequest struct {
	Host          *string            `json:"host,omitempty"`
	ScheduledDate *string            `json:"scheduledDate,omitempty"`
	ScheduledTime *string            `json:"scheduledTime,omitempty"`
	Purpose       *string            `json:"purpose,omitempty"`
	Status        *AppointmentStatus `json:"status,omitempty"`
	Location      *string            `json:"location,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
}

// Apply writes the non-status fields onto a. Status changes go through CheckTransition.
func (r *UpdateAppointmentRequest) Apply(a *Appointment) error {
	var v Validator
	if r.Host != nil {
		a.HostID = utils.NormalizeString(*r.Host)
		v.Required("host", a.HostID)
	}
	if r.ScheduledDate != nil {
		d, err := ParseDate(*r.ScheduledDate)
		v.Check(err == nil, "scheduledDate", "Invalid scheduled date")
		if err == nil {
			a.ScheduledDate = d
		}
	}
	if r.ScheduledTime != nil {
		a.ScheduledTime = utils.NormalizeString(*r.ScheduledTime)
		v.Required("scheduledTime", a.ScheduledTime)
	}
	if r.Purpose != nil {
		a.Purpose = utils.NormalizeString(*r.Purpose)
		v.Required("purpose", a.Purpose)
	}
	if r.Location != nil {
		a.Location = utils.NormalizeString(*r.Location)
	}
	if r.Notes != nil {
		a.Notes = *r.Notes
	}
	return v.Err()
}

type AppointmentFilter struct {
	Status    AppointmentStatus
	HostID    string
	VisitorID string
}

type StatusChangeRequest struct {
	Notes string `json:"notes,omitempty"`
}
