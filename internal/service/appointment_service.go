package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/notify"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/pkg/events"
	"github.com/diagnosis/visitor-pass/pkg/logger"
)

type AppointmentService interface {
	Create(ctx context.Context, req *domain.CreateAppointmentRequest) (*domain.AppointmentView, error)
	List(ctx context.Context, f domain.AppointmentFilter) ([]domain.AppointmentView, error)
	Get(ctx context.Context, id string) (*domain.AppointmentView, error)
	Update(ctx context.Context, id string, req *domain.UpdateAppointmentRequest, actorID string) (*domain.AppointmentView, error)
	Approve(ctx context.Context, id string, req *domain.StatusChangeRequest, actorID string) (*domain.AppointmentView, error)
	Reject(ctx context.Context, id string, req *domain.StatusChangeRequest, actorID string) (*domain.AppointmentView, error)
	Delete(ctx context.Context, id string) error
}

type appointmentService struct {
	deps Deps
	pop  populator
}

func (s *appointmentService) Create(ctx context.Context, req *domain.CreateAppointmentRequest) (*domain.AppointmentView, error) {
	req.Normalize()
	a, err := req.ToAppointment()
	if err != nil {
		return nil, err
	}
	if err := checkID(a.VisitorID); err != nil {
		return nil, err
	}
	if err := checkID(a.HostID); err != nil {
		return nil, err
	}
	if _, err := s.deps.Store.Visitors.GetByID(ctx, a.VisitorID); err != nil {
		return nil, mapRepoErr(err, domain.ErrVisitorNotFound)
	}
	if err := s.checkHost(ctx, a.HostID); err != nil {
		return nil, err
	}

	if err := s.deps.Store.Appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	events.Emit(ctx, s.deps.Events, events.AppointmentCreated, events.AppointmentCreatedEvent{
		AppointmentID: a.ID,
		VisitorID:     a.VisitorID,
		HostID:        a.HostID,
		ScheduledDate: a.ScheduledDate,
		ScheduledTime: a.ScheduledTime,
	})
	if n, ok := s.notice(ctx, a); ok {
		s.deps.Notifier.AppointmentCreated(ctx, n)
	}
	return s.pop.appointmentView(ctx, a)
}

// checkHost requires the host to exist and be an employee.
func (s *appointmentService) checkHost(ctx context.Context, hostID string) error {
	host, err := s.deps.Store.Users.GetByID(ctx, hostID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.ErrHostInvalid
	}
	if err != nil {
		return err
	}
	if host.Role != domain.RoleEmployee {
		return domain.ErrHostInvalid
	}
	return nil
}

func (s *appointmentService) List(ctx context.Context, f domain.AppointmentFilter) ([]domain.AppointmentView, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.ErrValidation.WithMessage("Invalid status")
	}
	list, err := s.deps.Store.Appointments.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return populateAll(ctx, list, s.pop.batch().appointmentView)
}

func (s *appointmentService) get(ctx context.Context, id string) (*domain.Appointment, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	a, err := s.deps.Store.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrAppointmentNotFound)
	}
	return a, nil
}

func (s *appointmentService) Get(ctx context.Context, id string) (*domain.AppointmentView, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.pop.appointmentView(ctx, a)
}

func (s *appointmentService) Update(ctx context.Context, id string, req *domain.UpdateAppointmentRequest, actorID string) (*domain.AppointmentView, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := a.Status
	prevHost := a.HostID
	if err := req.Apply(a); err != nil {
		return nil, err
	}
	if a.HostID != prevHost {
		if err := checkID(a.HostID); err != nil {
			return nil, err
		}
		if err := s.checkHost(ctx, a.HostID); err != nil {
			return nil, err
		}
	}
	if req.Status != nil && *req.Status != from {
		if req.Status.Decision() {
			return nil, domain.ErrInvalidStatusTransition.
				WithMessage(fmt.Sprintf("Use the %s endpoint to mark an appointment %s", decisionEndpoint(*req.Status), *req.Status)).
				WithDetails(map[string]string{"from": string(from), "to": string(*req.Status)})
		}
		if err := domain.CheckTransition(from, *req.Status); err != nil {
			return nil, err
		}
		s.setStatus(a, *req.Status, actorID)
	}
	return s.commit(ctx, a, from, actorID)
}

func decisionEndpoint(to domain.AppointmentStatus) string {
	if to == domain.StatusApproved {
		return "approve"
	}
	return "reject"
}

func (s *appointmentService) Approve(ctx context.Context, id string, req *domain.StatusChangeRequest, actorID string) (*domain.AppointmentView, error) {
	return s.decide(ctx, id, domain.StatusApproved, req, actorID)
}

func (s *appointmentService) Reject(ctx context.Context, id string, req *domain.StatusChangeRequest, actorID string) (*domain.AppointmentView, error) {
	return s.decide(ctx, id, domain.StatusRejected, req, actorID)
}

func (s *appointmentService) decide(ctx context.Context, id string, to domain.AppointmentStatus, req *domain.StatusChangeRequest, actorID string) (*domain.AppointmentView, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := a.Status
	if err := domain.CheckTransition(from, to); err != nil {
		return nil, err
	}
	s.setStatus(a, to, actorID)
	if req != nil && req.Notes != "" {
		a.Notes = req.Notes
	}
	return s.commit(ctx, a, from, actorID)
}

func (s *appointmentService) setStatus(a *domain.Appointment, to domain.AppointmentStatus, actorID string) {
	a.Status = to
	if to == domain.StatusApproved {
		now := s.deps.Now().UTC()
		a.ApprovedBy = strPtr(actorID)
		a.ApprovedAt = &now
	}
}

// commit writes a while its stored status is still from, then fires the side effects of any status change.
func (s *appointmentService) commit(ctx context.Context, a *domain.Appointment, from domain.AppointmentStatus, actorID string) (*domain.AppointmentView, error) {
	err := s.deps.Store.Appointments.UpdateIfStatus(ctx, a, from)
	if errors.Is(err, repo.ErrConflict) {
		return nil, domain.ErrInvalidStatusTransition.
			WithMessage("Appointment status was changed by another request").
			WithDetails(map[string]string{"from": string(from), "to": string(a.Status)})
	}
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrAppointmentNotFound)
	}

	if a.Status != from {
		s.statusChanged(ctx, a, from, actorID)
	}
	return s.pop.appointmentView(ctx, a)
}

func (s *appointmentService) statusChanged(ctx context.Context, a *domain.Appointment, from domain.AppointmentStatus, actorID string) {
	events.Emit(ctx, s.deps.Events, events.AppointmentStatusChanged, events.AppointmentStatusChangedEvent{
		AppointmentID: a.ID,
		From:          string(from),
		To:            string(a.Status),
		ChangedBy:     actorID,
		ChangedAt:     s.deps.Now().UTC(),
	})

	n, ok := s.notice(ctx, a)
	if !ok {
		return
	}
	switch a.Status {
	case domain.StatusApproved:
		// the approval email links to the pass; without one it goes out at issuance
		pass, err := s.deps.Store.Passes.LatestForAppointment(ctx, a.ID)
		if err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				logger.WarnContext(ctx, "approval email skipped", "appointment_id", a.ID, "error", err)
			}
			return
		}
		s.deps.Notifier.AppointmentApproved(ctx, n, pass.ID)
	case domain.StatusRejected:
		s.deps.Notifier.AppointmentRejected(ctx, n)
	case domain.StatusCancelled:
		s.deps.Notifier.AppointmentCancelled(ctx, n)
	}
}

// notice loads the visitor and host for an email. Lookup failures are logged and suppress the email.
func (s *appointmentService) notice(ctx context.Context, a *domain.Appointment) (notify.AppointmentNotice, bool) {
	return appointmentNotice(ctx, s.deps.Store, a)
}

func appointmentNotice(ctx context.Context, store repo.Store, a *domain.Appointment) (notify.AppointmentNotice, bool) {
	v, err := store.Visitors.GetByID(ctx, a.VisitorID)
	if err != nil {
		logger.WarnContext(ctx, "notification skipped: visitor lookup failed", "appointment_id", a.ID, "error", err)
		return notify.AppointmentNotice{}, false
	}
	hostName := ""
	if host, err := store.Users.GetByID(ctx, a.HostID); err == nil {
		hostName = host.FullName()
	}
	return notify.AppointmentNotice{
		VisitorName:  v.FullName(),
		VisitorEmail: v.Email,
		HostName:     hostName,
		Date:         a.ScheduledDate,
		Time:         a.ScheduledTime,
		Purpose:      a.Purpose,
		Location:     a.Location,
		Notes:        a.Notes,
	}, true
}

func (s *appointmentService) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	err := s.deps.Store.Appointments.DeleteIfStatus(ctx, id, domain.StatusPending)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrConflict):
		return domain.ErrAppointmentCannotDelete
	case errors.Is(err, repo.ErrNotFound):
		return domain.ErrAppointmentNotFound
	default:
		return fmt.Errorf("delete appointment: %w", err)
	}
}
