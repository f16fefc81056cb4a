package memory

import (
	"context"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
)

type AppointmentRepo struct{ db *DB }

func (r *AppointmentRepo) Create(_ context.Context, a *domain.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	r.db.appointments[a.ID] = *a
	return nil
}

func (r *AppointmentRepo) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	a, ok := r.db.appointments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &a, nil
}

func (r *AppointmentRepo) List(_ context.Context, f domain.AppointmentFilter) ([]domain.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []domain.Appointment{}
	for _, a := range r.db.appointments {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.HostID != "" && a.HostID != f.HostID {
			continue
		}
		if f.VisitorID != "" && a.VisitorID != f.VisitorID {
			continue
		}
		out = append(out, a)
	}
	sortByTime(out, func(a domain.Appointment) time.Time { return a.CreatedAt }, func(a domain.Appointment) string { return a.ID })
	return out, nil
}

func (r *AppointmentRepo) UpdateIfStatus(_ context.Context, a *domain.Appointment, expected domain.AppointmentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.appointments[a.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if existing.Status != expected {
		return repo.ErrConflict
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = r.db.now().UTC()
	r.db.appointments[a.ID] = *a
	return nil
}

func (r *AppointmentRepo) DeleteIfStatus(_ context.Context, id string, expected domain.AppointmentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.appointments[id]
	if !ok {
		return repo.ErrNotFound
	}
	if existing.Status != expected {
		return repo.ErrConflict
	}
	delete(r.db.appointments, id)
	for pid, p := range r.db.passes {
		if p.AppointmentID != nil && *p.AppointmentID == id {
			p.AppointmentID = nil
			r.db.passes[pid] = p
		}
	}
	return nil
}
