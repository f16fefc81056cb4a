package domain

// Views carry an entity plus the referenced entities resolved for a response.

type VisitorView struct {
	*Visitor
	CreatedByUser *UserSummary `json:"createdBy,omitempty"`
}

type AppointmentView struct {
	*Appointment
	Visitor        *VisitorSummary `json:"visitor,omitempty"`
	Host           *UserSummary    `json:"host,omitempty"`
	ApprovedByUser *UserSummary    `json:"approvedBy,omitempty"`
}

type PassView struct {
	*Pass
	Valid        bool            `json:"isValid"`
	Visitor      *VisitorSummary `json:"visitor,omitempty"`
	Appointment  *Appointment    `json:"appointment,omitempty"`
	IssuedByUser *UserSummary    `json:"issuedBy,omitempty"`
}

type CheckLogView struct {
	*CheckLog
	Visitor        *VisitorSummary `json:"visitor,omitempty"`
	Pass           *PassSummary    `json:"pass,omitempty"`
	CheckInByUser  *UserSummary    `json:"checkInBy,omitempty"`
	CheckOutByUser *UserSummary    `json:"checkOutBy,omitempty"`
}
