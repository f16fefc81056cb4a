// Package service holds the business operations behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/notify"
	"github.com/diagnosis/visitor-pass/internal/platform/badge"
	"github.com/diagnosis/visitor-pass/internal/platform/otp"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/pkg/config"
	"github.com/diagnosis/visitor-pass/pkg/events"
)

// Notifier is the subset of the notification dispatcher the services call.
type Notifier interface {
	AppointmentCreated(ctx context.Context, n notify.AppointmentNotice)
	AppointmentApproved(ctx context.Context, n notify.AppointmentNotice, passID string)
	AppointmentRejected(ctx context.Context, n notify.AppointmentNotice)
	AppointmentCancelled(ctx context.Context, n notify.AppointmentNotice)
	VisitorArrival(ctx context.Context, n notify.ArrivalNotice)
	OTPCode(ctx context.Context, email, code string, ttl time.Duration)
}

type Deps struct {
	Config   *config.Config
	Store    repo.Store
	Events   events.Publisher
	Notifier Notifier
	OTP      *otp.Verifier
	Badges   *badge.Renderer
	Now      func() time.Time
}

type Services struct {
	Auth          AuthService
	Users         UserService
	Visitors      VisitorService
	Appointments  AppointmentService
	Passes        PassService
	CheckLogs     CheckLogService
	Organizations OrganizationService
	Analytics     AnalyticsService
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Events == nil {
		d.Events = events.NoopPublisher{}
	}
	pop := populator{store: d.Store}
	passes := &passService{deps: d, pop: pop}
	return &Services{
		Auth:          &authService{deps: d},
		Users:         &userService{deps: d},
		Visitors:      &visitorService{deps: d, pop: pop},
		Appointments:  &appointmentService{deps: d, pop: pop},
		Passes:        passes,
		CheckLogs:     &checkLogService{deps: d, pop: pop, passes: passes},
		Organizations: &organizationService{deps: d},
		Analytics:     &analyticsService{deps: d},
	}
}

// mapRepoErr converts storage errors into API errors. notFound is used for repo.ErrNotFound.
func mapRepoErr(err error, notFound *domain.Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return notFound
	case errors.Is(err, repo.ErrDuplicate):
		field, _ := repo.DuplicateField(err)
		return domain.ErrDuplicate.
			WithMessage(fmt.Sprintf("Duplicate field value entered: %s", field)).
			WithDetails(map[string]string{"field": field})
	default:
		return err
	}
}

func checkID(id string) error {
	if !domain.ValidID(id) {
		return domain.ErrInvalidID
	}
	return nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
