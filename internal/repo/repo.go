// Package repo declares the storage contracts shared by the postgres and memory implementations.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict means a conditional write lost: the row no longer has the expected state.
	ErrConflict = errors.New("record state changed")
)

// DuplicateError names the unique field that rejected a write.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "duplicate " + e.Field }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// DuplicateField returns the offending field of a duplicate error, if any.
func DuplicateField(err error) (string, bool) {
	var de *DuplicateError
	if errors.As(err, &de) {
		return de.Field, true
	}
	return "", false
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	CountByOrganization(ctx context.Context, orgID string) (int64, error)
}

type VisitorRepository interface {
	Create(ctx context.Context, v *domain.Visitor) error
	GetByID(ctx context.Context, id string) (*domain.Visitor, error)
	List(ctx context.Context, f domain.VisitorFilter) ([]domain.Visitor, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Visitor, error)
	Update(ctx context.Context, v *domain.Visitor) error
	Delete(ctx context.Context, id string) error
	// MarkVerifiedByEmail flags every visitor with email as verified and clears their stored OTP.
	MarkVerifiedByEmail(ctx context.Context, email string) (int64, error)
	// ConsumeOTP clears the stored OTP on visitor id only while it still equals hash.
	ConsumeOTP(ctx context.Context, id, hash string) (bool, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	List(ctx context.Context, f domain.AppointmentFilter) ([]domain.Appointment, error)
	// UpdateIfStatus persists a only while the stored status still equals expected.
	UpdateIfStatus(ctx context.Context, a *domain.Appointment, expected domain.AppointmentStatus) error
	DeleteIfStatus(ctx context.Context, id string, expected domain.AppointmentStatus) error
}

type PassRepository interface {
	Create(ctx context.Context, p *domain.Pass) error
	GetByID(ctx context.Context, id string) (*domain.Pass, error)
	GetByNumber(ctx context.Context, passNumber string) (*domain.Pass, error)
	List(ctx context.Context, f domain.PassFilter) ([]domain.Pass, error)
	LatestForAppointment(ctx context.Context, appointmentID string) (*domain.Pass, error)
	Update(ctx context.Context, p *domain.Pass) error
	Delete(ctx context.Context, id string) error
}

type CheckLogRepository interface {
	// CreateOpen inserts an open log, failing with a DuplicateError on "pass" if one is already open.
	CreateOpen(ctx context.Context, l *domain.CheckLog) error
	GetByID(ctx context.Context, id string) (*domain.CheckLog, error)
	List(ctx context.Context, f domain.CheckLogFilter) ([]domain.CheckLog, error)
	// Close sets the check-out fields on the open log of passID. notes replaces the stored notes when non-nil.
	Close(ctx context.Context, passID string, at time.Time, by string, notes *string) (*domain.CheckLog, error)
}

type OrganizationRepository interface {
	Create(ctx context.Context, o *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
	Update(ctx context.Context, o *domain.Organization) error
	Delete(ctx context.Context, id string) error
}

type AnalyticsRepository interface {
	CountVisitors(ctx context.Context) (int64, error)
	CountAppointments(ctx context.Context) (int64, error)
	CountOpenCheckLogs(ctx context.Context) (int64, error)
	CountAppointmentsBetween(ctx context.Context, from, to time.Time) (int64, error)
	AppointmentStatusCounts(ctx context.Context) (map[domain.AppointmentStatus]int64, error)
	MonthlyVisitors(ctx context.Context, since time.Time) ([]domain.MonthlyCount, error)
	MonthlyAppointments(ctx context.Context, since time.Time) ([]domain.MonthlyCount, error)
	PopularTimes(ctx context.Context, limit int) ([]domain.TimeSlotCount, error)
	TopHosts(ctx context.Context, limit int) ([]domain.HostActivity, error)
}

// RateCounter counts hits for key inside a fixed window and reports whether the limit still holds.
type RateCounter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// CleanupExpired removes windows that have ended and returns how many were dropped.
	CleanupExpired(ctx context.Context) (int64, error)
}

// Store bundles every repository a running service needs.
type Store struct {
	Users         UserRepository
	Visitors      VisitorRepository
	Appointments  AppointmentRepository
	Passes        PassRepository
	CheckLogs     CheckLogRepository
	Organizations OrganizationRepository
	Analytics     AnalyticsRepository
	RateLimits    RateCounter
}
