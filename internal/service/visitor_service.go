package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/metrics"
	"github.com/diagnosis/visitor-pass/internal/platform/otp"
	"github.com/diagnosis/visitor-pass/internal/utils"
	"github.com/diagnosis/visitor-pass/pkg/events"
	"github.com/diagnosis/visitor-pass/pkg/logger"
)

type VisitorService interface {
	Create(ctx context.Context, req *domain.CreateVisitorRequest, createdBy string) (*domain.VisitorView, error)
	List(ctx context.Context, f domain.VisitorFilter) ([]domain.VisitorView, error)
	Get(ctx context.Context, id string) (*domain.VisitorView, error)
	Update(ctx context.Context, id string, req *domain.UpdateVisitorRequest) (*domain.VisitorView, error)
	Delete(ctx context.Context, id string) error

	SendOTP(ctx context.Context, req *domain.SendOTPRequest) error
	// VerifyOTP consumes a code and marks every visitor with the email verified.
	VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (int64, error)
	// RegisterWithOTP creates a self-registered visitor. With a code the visitor
	// is verified on the spot; without one a code is sent for verify-otp.
	RegisterWithOTP(ctx context.Context, req *domain.CreateVisitorRequest, code string) (*domain.VisitorView, error)
}

type visitorService struct {
	deps Deps
	pop  populator
}

func (s *visitorService) Create(ctx context.Context, req *domain.CreateVisitorRequest, createdBy string) (*domain.VisitorView, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	v := req.ToVisitor()
	v.CreatedBy = strPtr(createdBy)

	code, err := s.attachOTP(v)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Store.Visitors.Create(ctx, v); err != nil {
		return nil, mapRepoErr(err, domain.ErrVisitorNotFound)
	}
	s.deps.Notifier.OTPCode(ctx, v.Email, code, s.deps.Config.OTP.TTL)
	metrics.OTP("sent")
	s.registered(ctx, v)
	return s.pop.visitorView(ctx, v)
}

// attachOTP stores a fresh code hash on the visitor record and returns the plain code.
func (s *visitorService) attachOTP(v *domain.Visitor) (string, error) {
	code, err := otp.Generate()
	if err != nil {
		return "", err
	}
	hash, err := otp.Hash(code)
	if err != nil {
		return "", err
	}
	expires := s.deps.Now().Add(s.deps.Config.OTP.TTL)
	v.OTPHash = hash
	v.OTPExpires = &expires
	return code, nil
}

func (s *visitorService) registered(ctx context.Context, v *domain.Visitor) {
	events.Emit(ctx, s.deps.Events, events.VisitorRegistered, events.VisitorRegisteredEvent{
		VisitorID: v.ID,
		Email:     v.Email,
		CreatedBy: utils.Deref(v.CreatedBy),
		CreatedAt: v.CreatedAt,
	})
}

func (s *visitorService) List(ctx context.Context, f domain.VisitorFilter) ([]domain.VisitorView, error) {
	f.Search = utils.NormalizeString(f.Search)
	list, err := s.deps.Store.Visitors.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return populateAll(ctx, list, s.pop.batch().visitorView)
}

func (s *visitorService) get(ctx context.Context, id string) (*domain.Visitor, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	v, err := s.deps.Store.Visitors.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrVisitorNotFound)
	}
	return v, nil
}

func (s *visitorService) Get(ctx context.Context, id string) (*domain.VisitorView, error) {
	v, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.pop.visitorView(ctx, v)
}

func (s *visitorService) Update(ctx context.Context, id string, req *domain.UpdateVisitorRequest) (*domain.VisitorView, error) {
	v, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(v); err != nil {
		return nil, err
	}
	if err := s.deps.Store.Visitors.Update(ctx, v); err != nil {
		return nil, mapRepoErr(err, domain.ErrVisitorNotFound)
	}
	return s.pop.visitorView(ctx, v)
}

func (s *visitorService) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return mapRepoErr(s.deps.Store.Visitors.Delete(ctx, id), domain.ErrVisitorNotFound)
}

func (s *visitorService) SendOTP(ctx context.Context, req *domain.SendOTPRequest) error {
	email := utils.NormalizeEmail(req.Email)
	phone := utils.NormalizeString(req.Phone)
	if email == "" || phone == "" {
		return domain.ErrMissingFields
	}
	if !domain.IsValidEmail(email) {
		return domain.ErrValidation.WithMessage("Please provide a valid email").
			WithDetails([]domain.FieldError{{Field: "email", Message: "Please provide a valid email"}})
	}

	code, _, err := s.deps.OTP.Issue(ctx, email)
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}
	s.deps.Notifier.OTPCode(ctx, email, code, s.deps.OTP.TTL())
	metrics.OTP("sent")
	logger.InfoContext(ctx, "otp sent", "email", email)
	return nil
}

func (s *visitorService) VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (int64, error) {
	email := utils.NormalizeEmail(req.Email)
	code := utils.NormalizeString(req.OTP)
	if email == "" || code == "" {
		return 0, domain.ErrMissingRequiredFields.WithMessage("Email and OTP are required")
	}
	if err := s.checkCode(ctx, email, code); err != nil {
		return 0, err
	}

	n, err := s.deps.Store.Visitors.MarkVerifiedByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	events.Emit(ctx, s.deps.Events, events.VisitorVerified, events.VisitorVerifiedEvent{
		Email:      email,
		Visitors:   n,
		VerifiedAt: s.deps.Now().UTC(),
	})
	return n, nil
}

// checkCode consumes a pending code for email, falling back to codes stored on visitor records.
func (s *visitorService) checkCode(ctx context.Context, email, code string) error {
	ok, err := s.deps.OTP.Verify(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		ok, err = s.recordCodeMatches(ctx, email, code)
		if err != nil {
			return err
		}
	}
	if !ok {
		metrics.OTP("rejected")
		return domain.ErrInvalidOTP
	}
	metrics.OTP("verified")
	return nil
}

// recordCodeMatches consumes the first unexpired visitor-record code matching code.
func (s *visitorService) recordCodeMatches(ctx context.Context, email, code string) (bool, error) {
	list, err := s.deps.Store.Visitors.ListByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	now := s.deps.Now()
	for _, v := range list {
		if v.OTPExpires == nil || !now.Before(*v.OTPExpires) {
			continue
		}
		if !otp.Matches(v.OTPHash, code) {
			continue
		}
		consumed, err := s.deps.Store.Visitors.ConsumeOTP(ctx, v.ID, v.OTPHash)
		if err != nil {
			return false, err
		}
		if consumed {
			return true, nil
		}
	}
	return false, nil
}

func (s *visitorService) RegisterWithOTP(ctx context.Context, req *domain.CreateVisitorRequest, code string) (*domain.VisitorView, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	v := req.ToVisitor()

	code = utils.NormalizeString(code)
	var pending string
	if code != "" {
		if err := s.checkCode(ctx, v.Email, code); err != nil {
			return nil, err
		}
		v.IsVerified = true
	} else {
		var err error
		if pending, err = s.attachOTP(v); err != nil {
			return nil, err
		}
	}

	if err := s.deps.Store.Visitors.Create(ctx, v); err != nil {
		return nil, mapRepoErr(err, domain.ErrVisitorNotFound)
	}
	if pending != "" {
		s.deps.Notifier.OTPCode(ctx, v.Email, pending, s.deps.Config.OTP.TTL)
		metrics.OTP("sent")
	}
	s.registered(ctx, v)
	return s.pop.visitorView(ctx, v)
}
