package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/pkg/auth"
)

type UserService interface {
	Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error)
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	deps Deps
}

func (s *userService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	return createUser(ctx, s.deps, req)
}

func (s *userService) List(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, domain.ErrValidation.WithMessage("Invalid role")
	}
	return s.deps.Store.Users.List(ctx, f)
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	u, err := s.deps.Store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (s *userService) Update(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(u); err != nil {
		return nil, err
	}
	if req.Password != nil {
		if u.PasswordHash, err = auth.HashPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	if err := s.deps.Store.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, domain.ErrUserExists
		}
		return nil, mapRepoErr(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return mapRepoErr(s.deps.Store.Users.Delete(ctx, id), domain.ErrUserNotFound)
}
