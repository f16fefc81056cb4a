package service

import (
	"context"
	"errors"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/metrics"
	"github.com/diagnosis/visitor-pass/internal/notify"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/internal/utils"
	"github.com/diagnosis/visitor-pass/pkg/events"
	"github.com/diagnosis/visitor-pass/pkg/logger"
)

type CheckLogService interface {
	CheckIn(ctx context.Context, req *domain.CheckInRequest, actorID string) (*domain.CheckLogView, error)
	CheckOut(ctx context.Context, req *domain.CheckOutRequest, actorID string) (*domain.CheckLogView, error)
	List(ctx context.Context, f domain.CheckLogFilter) ([]domain.CheckLogView, error)
	// Active lists the open logs, most recent check-in first.
	Active(ctx context.Context) ([]domain.CheckLogView, error)
	Get(ctx context.Context, id string) (*domain.CheckLogView, error)
}

type checkLogService struct {
	deps   Deps
	pop    populator
	passes *passService
}

func normalizeRef(ref *domain.PassRef) {
	ref.PassID = utils.NormalizeString(ref.PassID)
	ref.PassNumber = utils.NormalizeString(ref.PassNumber)
	ref.QRCode = utils.NormalizeString(ref.QRCode)
}

func (s *checkLogService) CheckIn(ctx context.Context, req *domain.CheckInRequest, actorID string) (*domain.CheckLogView, error) {
	normalizeRef(&req.PassRef)
	if req.PassRef.Empty() {
		return nil, domain.ErrMissingRequiredFields.WithMessage("Please provide passId or qrCode")
	}
	pass, err := s.passes.Resolve(ctx, req.PassRef)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	if !pass.IsValid(now) {
		return nil, domain.ErrPassInvalid
	}

	var appt *domain.Appointment
	if pass.AppointmentID != nil {
		appt, err = s.deps.Store.Appointments.GetByID(ctx, *pass.AppointmentID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}
	location := utils.NormalizeString(req.Location)
	if location == "" && appt != nil {
		location = appt.Location
	}

	l := &domain.CheckLog{
		VisitorID:      pass.VisitorID,
		PassID:         pass.ID,
		CheckInTime:    now.UTC(),
		CheckInBy:      strPtr(actorID),
		Location:       location,
		Notes:          utils.NormalizeString(req.Notes),
		OrganizationID: pass.OrganizationID,
	}
	if err := s.deps.Store.CheckLogs.CreateOpen(ctx, l); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, domain.ErrAlreadyCheckedIn
		}
		return nil, err
	}

	metrics.CheckIn()
	logger.InfoContext(ctx, "visitor checked in", "pass_id", pass.ID, "check_log_id", l.ID)
	events.Emit(ctx, s.deps.Events, events.VisitorCheckedIn, events.CheckEvent{
		CheckLogID: l.ID,
		PassID:     pass.ID,
		VisitorID:  pass.VisitorID,
		By:         actorID,
		At:         l.CheckInTime,
	})
	if appt != nil {
		s.notifyHost(ctx, appt, l)
	}
	return s.pop.checkLogView(ctx, l)
}

// notifyHost tells the appointment's host that the visitor has arrived.
func (s *checkLogService) notifyHost(ctx context.Context, appt *domain.Appointment, l *domain.CheckLog) {
	host, err := s.deps.Store.Users.GetByID(ctx, appt.HostID)
	if err != nil {
		logger.WarnContext(ctx, "arrival notice skipped: host lookup failed", "appointment_id", appt.ID, "error", err)
		return
	}
	visitor, err := s.deps.Store.Visitors.GetByID(ctx, l.VisitorID)
	if err != nil {
		logger.WarnContext(ctx, "arrival notice skipped: visitor lookup failed", "visitor_id", l.VisitorID, "error", err)
		return
	}
	s.deps.Notifier.VisitorArrival(ctx, notify.ArrivalNotice{
		HostName:    host.FullName(),
		HostEmail:   host.Email,
		VisitorName: visitor.FullName(),
		Company:     visitor.Company,
		Location:    l.Location,
		CheckInTime: l.CheckInTime,
	})
}

func (s *checkLogService) CheckOut(ctx context.Context, req *domain.CheckOutRequest, actorID string) (*domain.CheckLogView, error) {
	normalizeRef(&req.PassRef)
	if req.PassRef.Empty() {
		return nil, domain.ErrMissingRequiredFields.WithMessage("Please provide passId or qrCode")
	}
	pass, err := s.passes.Resolve(ctx, req.PassRef)
	if err != nil {
		return nil, err
	}
	req.Notes = utils.NormalizeOptional(req.Notes)

	l, err := s.deps.Store.CheckLogs.Close(ctx, pass.ID, s.deps.Now().UTC(), actorID, req.Notes)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, domain.ErrNotCheckedIn
	}
	if err != nil {
		return nil, err
	}

	metrics.CheckOut()
	logger.InfoContext(ctx, "visitor checked out", "pass_id", pass.ID, "check_log_id", l.ID)
	events.Emit(ctx, s.deps.Events, events.VisitorCheckedOut, events.CheckEvent{
		CheckLogID: l.ID,
		PassID:     pass.ID,
		VisitorID:  l.VisitorID,
		By:         actorID,
		At:         utils.Deref(l.CheckOutTime),
	})
	return s.pop.checkLogView(ctx, l)
}

func (s *checkLogService) List(ctx context.Context, f domain.CheckLogFilter) ([]domain.CheckLogView, error) {
	logs, err := s.deps.Store.CheckLogs.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return populateAll(ctx, logs, s.pop.batch().checkLogView)
}

func (s *checkLogService) Active(ctx context.Context) ([]domain.CheckLogView, error) {
	return s.List(ctx, domain.CheckLogFilter{OpenOnly: true})
}

func (s *checkLogService) Get(ctx context.Context, id string) (*domain.CheckLogView, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	l, err := s.deps.Store.CheckLogs.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrCheckLogNotFound)
	}
	return s.pop.checkLogView(ctx, l)
}
