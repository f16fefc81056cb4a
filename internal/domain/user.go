package domain

import (
	"regexp"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/diagnosis/visitor-pass/internal/utils"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
	RoleEmployee Role = "employee"
	RoleVisitor  Role = "visitor"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleSecurity: true,
	RoleEmployee: true,
	RoleVisitor:  true,
}

func (r Role) Valid() bool { return validRoles[r] }

const MinPasswordLength = 6

var (
	emailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)
	phonePattern = regexp.MustCompile(`^[\+]?[(]?[0-9]{3}[)]?[-\s\.]?[0-9]{3}[-\s\.]?[0-9]{4,6}$`)
)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email) && govalidator.IsEmail(email)
}

func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Role           Role      `json:"role"`
	Phone          string    `json:"phone,omitempty"`
	Department     string    `json:"department,omitempty"`
	OrganizationID *string   `json:"organization,omitempty"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) FullName() string { return u.FirstName + " " + u.LastName }

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}

type CreateUserRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Role         Role    `json:"role,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Department   string  `json:"department,omitempty"`
	Organization *string `json:"organization,omitempty"`
}

func (r *CreateUserRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.FirstName = utils.NormalizeString(r.FirstName)
	r.LastName = utils.NormalizeString(r.LastName)
	r.Phone = utils.NormalizeString(r.Phone)
	r.Department = utils.NormalizeString(r.Department)
	r.Organization = utils.NormalizeOptional(r.Organization)
	if r.Role == "" {
		r.Role = RoleVisitor
	}
}

func (r *CreateUserRequest) Validate() error {
	var v Validator
	v.Required("email", r.Email)
	if r.Email != "" {
		v.Check(IsValidEmail(r.Email), "email", "Please provide a valid email")
	}
	v.Check(len(r.Password) >= MinPasswordLength, "password", "Password must be at least 6 characters")
	v.Required("firstName", r.FirstName)
	v.Required("lastName", r.LastName)
	v.Check(r.Role.Valid(), "role", "Invalid role")
	return v.Err()
}

type UpdateUserRequest struct {
	Email        *string `json:"email,omitempty"`
	Password     *string `json:"password,omitempty"`
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	Role         *Role   `json:"role,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Department   *string `json:"department,omitempty"`
	Organization *string `json:"organization,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// Apply validates the patch and writes it onto u. Password hashing is left to the caller.
func (r *UpdateUserRequest) Apply(u *User) error {
	var v Validator
	if r.Email != nil {
		email := utils.NormalizeEmail(*r.Email)
		v.Check(IsValidEmail(email), "email", "Please provide a valid email")
		u.Email = email
	}
	if r.Password != nil {
		v.Check(len(*r.Password) >= MinPasswordLength, "password", "Password must be at least 6 characters")
	}
	if r.FirstName != nil {
		u.FirstName = utils.NormalizeString(*r.FirstName)
		v.Required("firstName", u.FirstName)
	}
	if r.LastName != nil {
		u.LastName = utils.NormalizeString(*r.LastName)
		v.Required("lastName", u.LastName)
	}
	if r.Role != nil {
		v.Check(r.Role.Valid(), "role", "Invalid role")
		u.Role = *r.Role
	}
	if r.Phone != nil {
		u.Phone = utils.NormalizeString(*r.Phone)
	}
	if r.Department != nil {
		u.Department = utils.NormalizeString(*r.Department)
	}
	if r.Organization != nil {
		u.OrganizationID = utils.NormalizeOptional(r.Organization)
	}
	if r.IsActive != nil {
		u.IsActive = *r.IsActive
	}
	return v.Err()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type UserFilter struct {
	Role           Role
	OrganizationID string
}
