package memory

import (
	"context"
	"strings"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
)

type UserRepo struct{ db *DB }

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return &repo.DuplicateError{Field: "email"}
		}
	}
	r.db.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	r.db.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *UserRepo) List(_ context.Context, f domain.UserFilter) ([]domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []domain.User{}
	for _, u := range r.db.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.OrganizationID != "" && (u.OrganizationID == nil || *u.OrganizationID != f.OrganizationID) {
			continue
		}
		out = append(out, u)
	}
	sortByTime(out, func(u domain.User) time.Time { return u.CreatedAt }, func(u domain.User) string { return u.ID })
	return out, nil
}

func (r *UserRepo) Update(_ context.Context, u *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	for id, other := range r.db.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return &repo.DuplicateError{Field: "email"}
		}
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = r.db.now().UTC()
	r.db.users[u.ID] = *u
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.users, id)
	for aid, a := range r.db.appointments {
		if a.HostID == id {
			delete(r.db.appointments, aid)
		}
	}
	return nil
}

func (r *UserRepo) CountByOrganization(_ context.Context, orgID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, u := range r.db.users {
		if u.OrganizationID != nil && *u.OrganizationID == orgID {
			n++
		}
	}
	return n, nil
}
