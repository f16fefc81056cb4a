package domain

import (
	"time"
)

type CheckLog struct {
	ID             string     `json:"id"`
	VisitorID      string     `json:"visitorId"`
	PassID         string     `json:"passId"`
	CheckInTime    time.Time  `json:"checkInTime"`
	CheckOutTime   *time.Time `json:"checkOutTime"`
	CheckInBy      *string    `json:"checkInById,omitempty"`
	CheckOutBy     *string    `json:"checkOutById,omitempty"`
	Location       string     `json:"location,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	OrganizationID *string    `json:"organization,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// IsOpen reports whether the visitor is still on site under this log.
func (c *CheckLog) IsOpen() bool { return c.CheckOutTime == nil }

// PassRef identifies a pass by id, by pass number, or by a scanned QR payload.
type PassRef struct {
	PassID     string `json:"passId,omitempty"`
	PassNumber string `json:"passNumber,omitempty"`
	QRCode     string `json:"qrCode,omitempty"`
}

func (r PassRef) Empty() bool {
	return r.PassID == "" && r.PassNumber == "" && r.QRCode == ""
}

type CheckInRequest struct {
	PassRef
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type CheckOutRequest struct {
	PassRef
	Notes *string `json:"notes,omitempty"`
}

type CheckLogFilter struct {
	OpenOnly  bool
	VisitorID string
	PassID    string
}
