package domain

import (
	"time"

	"github.com/diagnosis/visitor-pass/internal/utils"
)

type Pass struct {
	ID             string    `json:"id"`
	PassNumber     string    `json:"passNumber"`
	VisitorID      string    `json:"visitorId"`
	AppointmentID  *string   `json:"appointmentId,omitempty"`
	QRCode         string    `json:"qrCode"`
	QRCodeImage    string    `json:"qrCodeImage"`
	ValidFrom      time.Time `json:"validFrom"`
	ValidUntil     time.Time `json:"validUntil"`
	IsActive       bool      `json:"isActive"`
	IssuedBy       *string   `json:"issuedById,omitempty"`
	OrganizationID *string   `json:"organization,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsValid reports whether the pass is active and now lies inside its window, bounds included.
func (p *Pass) IsValid(now time.Time) bool {
	return p.IsActive && !now.Before(p.ValidFrom) && !now.After(p.ValidUntil)
}

type PassSummary struct {
	ID         string    `json:"id"`
	PassNumber string    `json:"passNumber"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidUntil time.Time `json:"validUntil"`
	IsActive   bool      `json:"isActive"`
}

func (p *Pass) Summary() *PassSummary {
	return &PassSummary{
		ID:         p.ID,
		PassNumber: p.PassNumber,
		ValidFrom:  p.ValidFrom,
		ValidUntil: p.ValidUntil,
		IsActive:   p.IsActive,
	}
}

type CreatePassRequest struct {
	Visitor      string     `json:"visitor"`
	Appointment  *string    `json:"appointment,omitempty"`
	ValidFrom    *time.Time `json:"validFrom,omitempty"`
	ValidUntil   *time.Time `json:"validUntil,omitempty"`
	Organization *string    `json:"organization,omitempty"`
}

func (r *CreatePassRequest) Normalize() {
	r.Visitor = utils.NormalizeString(r.Visitor)
	r.Appointment = utils.NormalizeOptional(r.Appointment)
	r.Organization = utils.NormalizeOptional(r.Organization)
}

type UpdatePassRequest struct {
	ValidFrom  *time.Time `json:"validFrom,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
	IsActive   *bool      `json:"isActive,omitempty"`
}

func (r *UpdatePassRequest) Apply(p *Pass) error {
	if r.ValidFrom != nil {
		p.ValidFrom = *r.ValidFrom
	}
	if r.ValidUntil != nil {
		p.ValidUntil = *r.ValidUntil
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return ValidateWindow(p.ValidFrom, p.ValidUntil)
}

func ValidateWindow(from, until time.Time) error {
	var v Validator
	v.Check(!until.Before(from), "validUntil", "validUntil must not be before validFrom")
	return v.Err()
}

type PassFilter struct {
	VisitorID     string
	AppointmentID string
	Active        *bool
}
