package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/pkg/auth"
	"github.com/diagnosis/visitor-pass/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

type authService struct {
	deps Deps

	dummyOnce sync.Once
	dummyHash string
}

func (s *authService) Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	return createUser(ctx, s.deps, req)
}

// createUser is shared by registration and admin user creation.
func createUser(ctx context.Context, d Deps, req *domain.CreateUserRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := d.Store.Users.GetByEmail(ctx, req.Email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		Email:          req.Email,
		PasswordHash:   hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		Phone:          req.Phone,
		Department:     req.Department,
		OrganizationID: req.Organization,
		IsActive:       true,
	}
	if err := d.Store.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return nil, domain.ErrMissingCredentials
	}

	u, err := s.deps.Store.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repo.ErrNotFound) {
		// same work as a real comparison so timing does not reveal unknown emails
		auth.CheckPassword(req.Password, s.dummy())
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(req.Password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, domain.ErrUserInactive
	}

	token, err := auth.NewAccessToken(u.ID, u.Email, string(u.Role), s.deps.Config.Auth.JWTSecret, s.deps.Config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}
	return &domain.LoginResponse{User: u, Token: token}, nil
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("visitor-pass-timing-guard")
	})
	return s.dummyHash
}

func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNoToken
	}
	claims, err := auth.Parse(token, s.deps.Config.Auth.JWTSecret)
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, domain.ErrTokenExpired
	}
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	u, err := s.deps.Store.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, domain.ErrTokenUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load token user: %w", err)
	}
	if !u.IsActive {
		return nil, domain.ErrUserInactive
	}
	return u, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.deps.Store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrUserNotFound)
	}
	return u, nil
}
