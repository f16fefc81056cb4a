package memory

import (
	"context"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
)

type PassRepo struct{ db *DB }

func (r *PassRepo) Create(_ context.Context, p *domain.Pass) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.passes {
		if existing.PassNumber == p.PassNumber {
			return &repo.DuplicateError{Field: "passNumber"}
		}
	}
	r.db.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	r.db.passes[p.ID] = *p
	return nil
}

func (r *PassRepo) GetByID(_ context.Context, id string) (*domain.Pass, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.passes[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (r *PassRepo) GetByNumber(_ context.Context, passNumber string) (*domain.Pass, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.passes {
		if p.PassNumber == passNumber {
			return &p, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *PassRepo) List(_ context.Context, f domain.PassFilter) ([]domain.Pass, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []domain.Pass{}
	for _, p := range r.db.passes {
		if f.VisitorID != "" && p.VisitorID != f.VisitorID {
			continue
		}
		if f.AppointmentID != "" && (p.AppointmentID == nil || *p.AppointmentID != f.AppointmentID) {
			continue
		}
		if f.Active != nil && p.IsActive != *f.Active {
			continue
		}
		out = append(out, p)
	}
	sortByTime(out, func(p domain.Pass) time.Time { return p.CreatedAt }, func(p domain.Pass) string { return p.ID })
	return out, nil
}

func (r *PassRepo) LatestForAppointment(ctx context.Context, appointmentID string) (*domain.Pass, error) {
	passes, err := r.List(ctx, domain.PassFilter{AppointmentID: appointmentID})
	if err != nil {
		return nil, err
	}
	if len(passes) == 0 {
		return nil, repo.ErrNotFound
	}
	return &passes[0], nil
}

func (r *PassRepo) Update(_ context.Context, p *domain.Pass) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.passes[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.db.now().UTC()
	r.db.passes[p.ID] = *p
	return nil
}

func (r *PassRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.passes[id]; !ok {
		return repo.ErrNotFound
	}
	r.db.deletePassLocked(id)
	return nil
}

// deletePassLocked removes a pass and its check logs. Callers hold db.mu.
func (db *DB) deletePassLocked(id string) {
	delete(db.passes, id)
	for lid, l := range db.checkLogs {
		if l.PassID == id {
			delete(db.checkLogs, lid)
		}
	}
}
