package service

import (
	"context"
	"errors"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
)

type OrganizationService interface {
	Create(ctx context.Context, req *domain.CreateOrganizationRequest, adminID string) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
	Get(ctx context.Context, id string) (*domain.Organization, error)
	Update(ctx context.Context, id string, req *domain.UpdateOrganizationRequest) (*domain.Organization, error)
	Delete(ctx context.Context, id string) error
}

type organizationService struct {
	deps Deps
}

func (s *organizationService) Create(ctx context.Context, req *domain.CreateOrganizationRequest, adminID string) (*domain.Organization, error) {
	o, err := req.ToOrganization(adminID)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Store.Organizations.Create(ctx, o); err != nil {
		return nil, mapRepoErr(err, domain.ErrOrganizationNotFound)
	}
	return o, nil
}

func (s *organizationService) List(ctx context.Context) ([]domain.Organization, error) {
	return s.deps.Store.Organizations.List(ctx)
}

func (s *organizationService) Get(ctx context.Context, id string) (*domain.Organization, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	o, err := s.deps.Store.Organizations.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrOrganizationNotFound)
	}
	return o, nil
}

func (s *organizationService) Update(ctx context.Context, id string, req *domain.UpdateOrganizationRequest) (*domain.Organization, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(o); err != nil {
		return nil, err
	}
	if err := s.deps.Store.Organizations.Update(ctx, o); err != nil {
		return nil, mapRepoErr(err, domain.ErrOrganizationNotFound)
	}
	return o, nil
}

// Delete refuses while any user still belongs to the organization.
func (s *organizationService) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	n, err := s.deps.Store.Users.CountByOrganization(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrOrganizationHasUsers
	}
	err = s.deps.Store.Organizations.Delete(ctx, id)
	if errors.Is(err, repo.ErrConflict) {
		return domain.ErrOrganizationHasUsers
	}
	return mapRepoErr(err, domain.ErrOrganizationNotFound)
}
