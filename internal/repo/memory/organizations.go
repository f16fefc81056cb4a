package memory

import (
	"context"
	"strings"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
)

type OrganizationRepo struct{ db *DB }

func (r *OrganizationRepo) uniqueLocked(o *domain.Organization) error {
	for id, other := range r.db.orgs {
		if id == o.ID {
			continue
		}
		if strings.EqualFold(other.Name, o.Name) {
			return &repo.DuplicateError{Field: "name"}
		}
		if other.Slug == o.Slug {
			return &repo.DuplicateError{Field: "slug"}
		}
	}
	return nil
}

func (r *OrganizationRepo) Create(_ context.Context, o *domain.Organization) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.uniqueLocked(o); err != nil {
		return err
	}
	r.db.stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	r.db.orgs[o.ID] = *o
	return nil
}

func (r *OrganizationRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	o, ok := r.db.orgs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &o, nil
}

func (r *OrganizationRepo) List(_ context.Context) ([]domain.Organization, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.Organization, 0, len(r.db.orgs))
	for _, o := range r.db.orgs {
		out = append(out, o)
	}
	sortByTime(out, func(o domain.Organization) time.Time { return o.CreatedAt }, func(o domain.Organization) string { return o.ID })
	return out, nil
}

func (r *OrganizationRepo) Update(_ context.Context, o *domain.Organization) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.orgs[o.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if err := r.uniqueLocked(o); err != nil {
		return err
	}
	o.CreatedAt = existing.CreatedAt
	o.UpdatedAt = r.db.now().UTC()
	r.db.orgs[o.ID] = *o
	return nil
}

// Delete refuses while users still reference the organization.
func (r *OrganizationRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.orgs[id]; !ok {
		return repo.ErrNotFound
	}
	for _, u := range r.db.users {
		if u.OrganizationID != nil && *u.OrganizationID == id {
			return repo.ErrConflict
		}
	}
	delete(r.db.orgs, id)
	return nil
}
