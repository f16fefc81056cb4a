package domain

import (
	"time"

	"github.com/diagnosis/visitor-pass/internal/utils"
)

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type OrganizationSettings struct {
	MaxVisitorsPerDay        int  `json:"maxVisitorsPerDay"`
	DefaultPassExpiryHours   int  `json:"defaultPassExpiryHours"`
	EnableEmailNotifications bool `json:"enableEmailNotifications"`
	EnableSMSNotifications   bool `json:"enableSmsNotifications"`
}

func DefaultOrganizationSettings() OrganizationSettings {
	return OrganizationSettings{
		MaxVisitorsPerDay:        100,
		DefaultPassExpiryHours:   24,
		EnableEmailNotifications: true,
		EnableSMSNotifications:   false,
	}
}

type Organization struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Description string               `json:"description,omitempty"`
	Address     Address              `json:"address"`
	Contact     Contact              `json:"contact"`
	AdminUserID string               `json:"adminUser"`
	IsActive    bool                 `json:"isActive"`
	Settings    OrganizationSettings `json:"settings"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

type CreateOrganizationRequest struct {
	Name        string                `json:"name"`
	Slug        string                `json:"slug,omitempty"`
	Description string                `json:"description,omitempty"`
	Address     Address               `json:"address"`
	Contact     Contact               `json:"contact"`
	IsActive    *bool                 `json:"isActive,omitempty"`
	Settings    *OrganizationSettings `json:"settings,omitempty"`
}

// ToOrganization validates the request and fills defaults. The slug falls back to the name.
func (r *CreateOrganizationRequest) ToOrganization(adminUserID string) (*Organization, error) {
	r.Name = utils.NormalizeString(r.Name)
	r.Slug = utils.Slugify(r.Slug)
	if r.Slug == "" {
		r.Slug = utils.Slugify(r.Name)
	}
	r.Contact.Email = utils.NormalizeEmail(r.Contact.Email)

	var v Validator
	v.Required("name", r.Name)
	v.Check(r.Name == "" || r.Slug != "", "slug", "Slug must contain letters or digits")
	if r.Contact.Email != "" {
		v.Check(IsValidEmail(r.Contact.Email), "contact.email", "Please provide a valid email")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	org := &Organization{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: utils.NormalizeString(r.Description),
		Address:     r.Address,
		Contact:     r.Contact,
		AdminUserID: adminUserID,
		IsActive:    true,
		Settings:    DefaultOrganizationSettings(),
	}
	if r.IsActive != nil {
		org.IsActive = *r.IsActive
	}
	if r.Settings != nil {
		org.Settings = *r.Settings
	}
	return org, nil
}

type UpdateOrganizationRequest struct {
	Name        *string               `json:"name,omitempty"`
	Slug        *string               `json:"slug,omitempty"`
	Description *string               `json:"description,omitempty"`
	Address     *Address              `json:"address,omitempty"`
	Contact     *Contact              `json:"contact,omitempty"`
	IsActive    *bool                 `json:"isActive,omitempty"`
	Settings    *OrganizationSettings `json:"settings,omitempty"`
}

func (r *UpdateOrganizationRequest) Apply(o *Organization) error {
	var v Validator
	if r.Name != nil {
		o.Name = utils.NormalizeString(*r.Name)
		v.Required("name", o.Name)
	}
	if r.Slug != nil {
		o.Slug = utils.Slugify(*r.Slug)
		v.Check(o.Slug != "", "slug", "Slug must contain letters or digits")
	}
	if r.Description != nil {
		o.Description = utils.NormalizeString(*r.Description)
	}
	if r.Address != nil {
		o.Address = *r.Address
	}
	if r.Contact != nil {
		o.Contact = *r.Contact
		o.Contact.Email = utils.NormalizeEmail(o.Contact.Email)
		if o.Contact.Email != "" {
			v.Check(IsValidEmail(o.Contact.Email), "contact.email", "Please provide a valid email")
		}
	}
	if r.IsActive != nil {
		o.IsActive = *r.IsActive
	}
	if r.Settings != nil {
		o.Settings = *r.Settings
	}
	return v.Err()
}
