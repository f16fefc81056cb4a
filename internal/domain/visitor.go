package domain

import (
	"time"

	"github.com/diagnosis/visitor-pass/internal/utils"
)

type IDType string

const (
	IDPassport      IDType = "passport"
	IDDriverLicense IDType = "driverLicense"
	IDNationalID    IDType = "nationalId"
)

func (t IDType) Valid() bool {
	switch t {
	case "", IDPassport, IDDriverLicense, IDNationalID:
		return true
	}
	return false
}

type Visitor struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Company        string     `json:"company,omitempty"`
	Photo          string     `json:"photo,omitempty"`
	IDType         IDType     `json:"idType,omitempty"`
	IDNumber       string     `json:"idNumber,omitempty"`
	Purpose        string     `json:"purpose,omitempty"`
	IsVerified     bool       `json:"isVerified"`
	OTPHash        string     `json:"-"`
	OTPExpires     *time.Time `json:"-"`
	CreatedBy      *string    `json:"createdById,omitempty"`
	OrganizationID *string    `json:"organization,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (v *Visitor) FullName() string { return v.FirstName + " " + v.LastName }

type VisitorSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company,omitempty"`
	Photo     string `json:"photo,omitempty"`
}

func (v *Visitor) Summary() *VisitorSummary {
	return &VisitorSummary{
		ID:        v.ID,
		FirstName: v.FirstName,
		LastName:  v.LastName,
		Email:     v.Email,
		Phone:     v.Phone,
		Company:   v.Company,
		Photo:     v.Photo,
	}
}

type CreateVisitorRequest struct {
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Company      string  `json:"company,omitempty"`
	Photo        string  `json:"photo,omitempty"`
	IDType       IDType  `json:"idType,omitempty"`
	IDNumber     string  `json:"idNumber,omitempty"`
	Purpose      string  `json:"purpose,omitempty"`
	Organization *string `json:"organization,omitempty"`
}

func (r *CreateVisitorRequest) Normalize() {
	r.FirstName = utils.NormalizeString(r.FirstName)
	r.LastName = utils.NormalizeString(r.LastName)
	r.Email = utils.NormalizeEmail(r.Email)
	r.Phone = utils.NormalizeString(r.Phone)
	r.Company = utils.NormalizeString(r.Company)
	r.IDNumber = utils.NormalizeString(r.IDNumber)
	r.Purpose = utils.NormalizeString(r.Purpose)
	r.Organization = utils.NormalizeOptional(r.Organization)
}

func (r *CreateVisitorRequest) Validate() error {
	var v Validator
	v.Required("firstName", r.FirstName)
	v.Required("lastName", r.LastName)
	v.Required("email", r.Email)
	if r.Email != "" {
		v.Check(IsValidEmail(r.Email), "email", "Please provide a valid email")
	}
	v.Required("phone", r.Phone)
	if r.Phone != "" {
		v.Check(IsValidPhone(r.Phone), "phone", "Please provide a valid phone number")
	}
	v.Check(r.IDType.Valid(), "idType", "Invalid ID type")
	return v.Err()
}

func (r *CreateVisitorRequest) ToVisitor() *Visitor {
	return &Visitor{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Company:        r.Company,
		Photo:          r.Photo,
		IDType:         r.IDType,
		IDNumber:       r.IDNumber,
		Purpose:        r.Purpose,
		OrganizationID: r.Organization,
	}
}

type UpdateVisitorRequest struct {
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Company    *string `json:"company,omitempty"`
	Photo      *string `json:"photo,omitempty"`
	IDType     *IDType `json:"idType,omitempty"`
	IDNumber   *string `json:"idNumber,omitempty"`
	Purpose    *string `json:"purpose,omitempty"`
	IsVerified *bool   `json:"isVerified,omitempty"`
}

func (r *UpdateVisitorRequest) Apply(vis *Visitor) error {
	var v Validator
	if r.FirstName != nil {
		vis.FirstName = utils.NormalizeString(*r.FirstName)
		v.Required("firstName", vis.FirstName)
	}
	if r.LastName != nil {
		vis.LastName = utils.NormalizeString(*r.LastName)
		v.Required("lastName", vis.LastName)
	}
	if r.Email != nil {
		vis.Email = utils.NormalizeEmail(*r.Email)
		v.Check(IsValidEmail(vis.Email), "email", "Please provide a valid email")
	}
	if r.Phone != nil {
		vis.Phone = utils.NormalizeString(*r.Phone)
		v.Check(IsValidPhone(vis.Phone), "phone", "Please provide a valid phone number")
	}
	if r.Company != nil {
		vis.Company = utils.NormalizeString(*r.Company)
	}
	if r.Photo != nil {
		vis.Photo = *r.Photo
	}
	if r.IDType != nil {
		v.Check(r.IDType.Valid(), "idType", "Invalid ID type")
		vis.IDType = *r.IDType
	}
	if r.IDNumber != nil {
		vis.IDNumber = utils.NormalizeString(*r.IDNumber)
	}
	if r.Purpose != nil {
		vis.Purpose = utils.NormalizeString(*r.Purpose)
	}
	if r.IsVerified != nil {
		vis.IsVerified = *r.IsVerified
	}
	return v.Err()
}

type VisitorFilter struct {
	Search    string
	CreatedBy string
}

type SendOTPRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}
