package domain

import (
	"net/http"
	"strings"
)

// Error is a failure that maps to exactly one HTTP status and envelope code.
type Error struct {
	Status  int
	Code    string
	Message string
	Details any
}

func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Is matches any *Error carrying the same code, so sentinels survive WithMessage/WithDetails.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Input
var (
	ErrValidation            = NewError(http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed")
	ErrMissingRequiredFields = NewError(http.StatusBadRequest, "MISSING_REQUIRED_FIELDS", "Missing required fields")
	ErrMissingFields         = NewError(http.StatusBadRequest, "MISSING_FIELDS", "Email and phone are required")
	ErrInvalidID             = NewError(http.StatusBadRequest, "INVALID_ID", "Invalid ID format")
	ErrInvalidJSON           = NewError(http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
	ErrInvalidOTP            = NewError(http.StatusBadRequest, "INVALID_OTP", "Invalid or expired OTP")
	ErrFileUpload            = NewError(http.StatusBadRequest, "FILE_UPLOAD_ERROR", "File upload failed")
	ErrInvalidFileType       = NewError(http.StatusBadRequest, "INVALID_FILE_TYPE", "Only JPEG and PNG images are allowed")
	ErrFileTooLarge          = NewError(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File size exceeds the allowed limit")
)

// Auth
var (
	ErrMissingCredentials      = NewError(http.StatusBadRequest, "MISSING_CREDENTIALS", "Please provide email and password")
	ErrInvalidCredentials      = NewError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrNoToken                 = NewError(http.StatusUnauthorized, "NO_TOKEN", "Not authorized to access this route")
	ErrTokenExpired            = NewError(http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired")
	ErrInvalidToken            = NewError(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
	ErrUserInactive            = NewError(http.StatusUnauthorized, "USER_INACTIVE", "User account is inactive")
	ErrTokenUserNotFound       = NewError(http.StatusUnauthorized, "USER_NOT_FOUND", "User no longer exists")
	ErrNotAuthenticated        = NewError(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated")
	ErrInsufficientPermissions = NewError(http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "You do not have permission to perform this action")
)

// Not found
var (
	ErrNotFound             = NewError(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrUserNotFound         = NewError(http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	ErrVisitorNotFound      = NewError(http.StatusNotFound, "VISITOR_NOT_FOUND", "Visitor not found")
	ErrAppointmentNotFound  = NewError(http.StatusNotFound, "APPOINTMENT_NOT_FOUND", "Appointment not found")
	ErrPassNotFound         = NewError(http.StatusNotFound, "PASS_NOT_FOUND", "Pass not found")
	ErrCheckLogNotFound     = NewError(http.StatusNotFound, "CHECKLOG_NOT_FOUND", "Check log not found")
	ErrOrganizationNotFound = NewError(http.StatusNotFound, "ORGANIZATION_NOT_FOUND", "Organization not found")
	ErrHostInvalid          = NewError(http.StatusNotFound, "HOST_INVALID", "Host not found or is not an employee")
	ErrNotCheckedIn         = NewError(http.StatusNotFound, "NOT_CHECKED_IN", "Visitor is not checked in")
)

// Conflicts and business rules
var (
	ErrUserExists              = NewError(http.StatusConflict, "USER_EXISTS", "User with this email already exists")
	ErrDuplicate               = NewError(http.StatusConflict, "DUPLICATE_ERROR", "Duplicate value")
	ErrInvalidStatusTransition = NewError(http.StatusConflict, "INVALID_STATUS_TRANSITION", "Appointment status change not allowed")
	ErrAppointmentCannotDelete = NewError(http.StatusBadRequest, "APPOINTMENT_CANNOT_DELETE", "Only pending appointments can be deleted")
	ErrOrganizationHasUsers    = NewError(http.StatusBadRequest, "ORGANIZATION_HAS_USERS", "Cannot delete organization with existing users")
	ErrPassInvalid             = NewError(http.StatusBadRequest, "PASS_INVALID", "Pass is not valid")
	ErrPassExpiredOrInactive   = NewError(http.StatusBadRequest, "PASS_EXPIRED_OR_INACTIVE", "Pass is expired or inactive")
	ErrAlreadyCheckedIn        = NewError(http.StatusBadRequest, "ALREADY_CHECKED_IN", "Visitor is already checked in")
)

var (
	ErrRateLimited      = NewError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")
	ErrServer           = NewError(http.StatusInternalServerError, "SERVER_ERROR", "Server Error")
	ErrBadgeRender      = NewError(http.StatusInternalServerError, "SERVER_ERROR", "Error generating pass badge")
	ErrMethodNotAllowed = NewError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors; Err returns nil when every check passed.
type Validator struct {
	fields []FieldError
}

func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "Please provide "+field)
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.Add(field, message)
	}
}

func (v *Validator) Add(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	msgs := make([]string, len(v.fields))
	for i, f := range v.fields {
		msgs[i] = f.Message
	}
	return ErrValidation.WithMessage(strings.Join(msgs, ", ")).WithDetails(v.fields)
}
