package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/metrics"
	"github.com/diagnosis/visitor-pass/internal/platform/badge"
	"github.com/diagnosis/visitor-pass/internal/platform/qr"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/internal/utils"
	"github.com/diagnosis/visitor-pass/pkg/events"
	"github.com/diagnosis/visitor-pass/pkg/logger"
)

type PassService interface {
	Issue(ctx context.Context, req *domain.CreatePassRequest, issuedBy string, form qr.Form) (*domain.PassView, error)
	List(ctx context.Context, f domain.PassFilter) ([]domain.PassView, error)
	Get(ctx context.Context, id string) (*domain.PassView, error)
	Update(ctx context.Context, id string, req *domain.UpdatePassRequest) (*domain.PassView, error)
	Delete(ctx context.Context, id string) error
	VerifyByNumber(ctx context.Context, passNumber string) (*domain.PassView, error)
	// ResolveScan maps a scanned QR payload of either form to its pass.
	ResolveScan(ctx context.Context, code string) (*domain.Pass, error)
	Resolve(ctx context.Context, ref domain.PassRef) (*domain.Pass, error)
	// Badge renders the printable badge and returns it with the pass number.
	Badge(ctx context.Context, id string) ([]byte, string, error)
}

type passService struct {
	deps Deps
	pop  populator
}

func (s *passService) Issue(ctx context.Context, req *domain.CreatePassRequest, issuedBy string, form qr.Form) (*domain.PassView, error) {
	req.Normalize()
	var v domain.Validator
	v.Required("visitor", req.Visitor)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := checkID(req.Visitor); err != nil {
		return nil, err
	}
	visitor, err := s.deps.Store.Visitors.GetByID(ctx, req.Visitor)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrVisitorNotFound)
	}

	var appt *domain.Appointment
	if req.Appointment != nil {
		if err := checkID(*req.Appointment); err != nil {
			return nil, err
		}
		if appt, err = s.deps.Store.Appointments.GetByID(ctx, *req.Appointment); err != nil {
			return nil, mapRepoErr(err, domain.ErrAppointmentNotFound)
		}
	}

	now := s.deps.Now().UTC()
	from := now
	if req.ValidFrom != nil {
		from = req.ValidFrom.UTC()
	}
	until := from.Add(s.deps.Config.Pass.DefaultValidity)
	if req.ValidUntil != nil {
		until = req.ValidUntil.UTC()
	}
	if err := domain.ValidateWindow(from, until); err != nil {
		return nil, err
	}

	org := req.Organization
	if org == nil {
		org = visitor.OrganizationID
	}
	pass := &domain.Pass{
		VisitorID:      visitor.ID,
		AppointmentID:  req.Appointment,
		ValidFrom:      from,
		ValidUntil:     until,
		IsActive:       true,
		IssuedBy:       strPtr(issuedBy),
		OrganizationID: org,
	}
	if err := s.create(ctx, pass, form); err != nil {
		return nil, err
	}

	metrics.PassIssued()
	events.Emit(ctx, s.deps.Events, events.PassIssued, events.PassIssuedEvent{
		PassID:        pass.ID,
		PassNumber:    pass.PassNumber,
		VisitorID:     pass.VisitorID,
		AppointmentID: utils.Deref(pass.AppointmentID),
		ValidFrom:     pass.ValidFrom,
		ValidUntil:    pass.ValidUntil,
	})
	if appt != nil && appt.Status == domain.StatusApproved {
		if n, ok := appointmentNotice(ctx, s.deps.Store, appt); ok {
			s.deps.Notifier.AppointmentApproved(ctx, n, pass.ID)
		}
	}
	return s.pop.passView(ctx, pass, s.deps.Now())
}

// create allocates a pass number and persists the pass, retrying when the number is taken.
func (s *passService) create(ctx context.Context, pass *domain.Pass, form qr.Form) error {
	attempts := s.deps.Config.Pass.NumberAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		number, err := qr.NewPassNumber(s.deps.Now())
		if err != nil {
			return err
		}
		pass.ID = ""
		pass.PassNumber = number
		if err := s.render(pass, form); err != nil {
			return err
		}

		err = s.deps.Store.Passes.Create(ctx, pass)
		if err == nil {
			return nil
		}
		if field, ok := repo.DuplicateField(err); ok && field == "passNumber" {
			logger.WarnContext(ctx, "pass number collision, retrying", "pass_number", number, "attempt", i+1)
			continue
		}
		return mapRepoErr(err, domain.ErrPassNotFound)
	}
	return domain.ErrDuplicate.
		WithMessage("Could not allocate a unique pass number").
		WithDetails(map[string]string{"field": "passNumber"})
}

func (s *passService) render(pass *domain.Pass, form qr.Form) error {
	payload, err := qr.Payload(form, pass)
	if err != nil {
		return fmt.Errorf("build qr payload: %w", err)
	}
	img, err := qr.DataURL(payload)
	if err != nil {
		return err
	}
	pass.QRCode = payload
	pass.QRCodeImage = img
	return nil
}

func (s *passService) List(ctx context.Context, f domain.PassFilter) ([]domain.PassView, error) {
	list, err := s.deps.Store.Passes.List(ctx, f)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	pop := s.pop.batch()
	return populateAll(ctx, list, func(ctx context.Context, p *domain.Pass) (*domain.PassView, error) {
		return pop.passView(ctx, p, now)
	})
}

func (s *passService) get(ctx context.Context, id string) (*domain.Pass, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	p, err := s.deps.Store.Passes.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrPassNotFound)
	}
	return p, nil
}

func (s *passService) Get(ctx context.Context, id string) (*domain.PassView, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.pop.passView(ctx, p, s.deps.Now())
}

func (s *passService) Update(ctx context.Context, id string, req *domain.UpdatePassRequest) (*domain.PassView, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	from, until := p.ValidFrom, p.ValidUntil
	if err := req.Apply(p); err != nil {
		return nil, err
	}
	// the JSON payload embeds the window and must follow it
	windowChanged := !from.Equal(p.ValidFrom) || !until.Equal(p.ValidUntil)
	if windowChanged && p.QRCode != p.PassNumber {
		if err := s.render(p, qr.FormJSON); err != nil {
			return nil, err
		}
	}
	if err := s.deps.Store.Passes.Update(ctx, p); err != nil {
		return nil, mapRepoErr(err, domain.ErrPassNotFound)
	}
	return s.pop.passView(ctx, p, s.deps.Now())
}

func (s *passService) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return mapRepoErr(s.deps.Store.Passes.Delete(ctx, id), domain.ErrPassNotFound)
}

func (s *passService) VerifyByNumber(ctx context.Context, passNumber string) (*domain.PassView, error) {
	p, err := s.byNumber(ctx, passNumber)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	if !p.IsValid(now) {
		return nil, domain.ErrPassExpiredOrInactive
	}
	return s.pop.passView(ctx, p, now)
}

func (s *passService) byNumber(ctx context.Context, passNumber string) (*domain.Pass, error) {
	passNumber = utils.NormalizeString(passNumber)
	if passNumber == "" {
		return nil, domain.ErrPassNotFound
	}
	p, err := s.deps.Store.Passes.GetByNumber(ctx, passNumber)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrPassNotFound)
	}
	return p, nil
}

func (s *passService) ResolveScan(ctx context.Context, code string) (*domain.Pass, error) {
	number, err := qr.ParsePayload(code)
	if errors.Is(err, qr.ErrInvalidPayload) {
		return nil, domain.ErrPassNotFound.WithMessage("QR code does not match any pass")
	}
	if err != nil {
		return nil, err
	}
	return s.byNumber(ctx, number)
}

func (s *passService) Resolve(ctx context.Context, ref domain.PassRef) (*domain.Pass, error) {
	switch {
	case ref.PassID != "":
		return s.get(ctx, ref.PassID)
	case ref.PassNumber != "":
		return s.byNumber(ctx, ref.PassNumber)
	case ref.QRCode != "":
		return s.ResolveScan(ctx, ref.QRCode)
	default:
		return nil, domain.ErrMissingRequiredFields.WithMessage("Please provide passId or qrCode")
	}
}

func (s *passService) Badge(ctx context.Context, id string) ([]byte, string, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	v, err := s.deps.Store.Visitors.GetByID(ctx, p.VisitorID)
	if err != nil {
		return nil, "", mapRepoErr(err, domain.ErrVisitorNotFound)
	}

	pdf, err := s.deps.Badges.Render(badge.Data{
		PassNumber: p.PassNumber,
		FullName:   v.FullName(),
		Company:    v.Company,
		Photo:      v.Photo,
		QRImage:    p.QRCodeImage,
		ValidFrom:  p.ValidFrom,
		ValidUntil: p.ValidUntil,
	})
	if err != nil {
		logger.ErrorContext(ctx, "badge render failed", "pass_id", p.ID, "error", err)
		return nil, "", domain.ErrBadgeRender
	}
	return pdf, p.PassNumber, nil
}
