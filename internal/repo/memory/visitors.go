package memory

import (
	"context"
	"strings"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
)

type VisitorRepo struct{ db *DB }

func (r *VisitorRepo) Create(_ context.Context, v *domain.Visitor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.stamp(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	r.db.visitors[v.ID] = *v
	return nil
}

func (r *VisitorRepo) GetByID(_ context.Context, id string) (*domain.Visitor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	v, ok := r.db.visitors[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &v, nil
}

func (r *VisitorRepo) List(_ context.Context, f domain.VisitorFilter) ([]domain.Visitor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := []domain.Visitor{}
	for _, v := range r.db.visitors {
		if f.CreatedBy != "" && (v.CreatedBy == nil || *v.CreatedBy != f.CreatedBy) {
			continue
		}
		if needle != "" && !matchesVisitor(v, needle) {
			continue
		}
		out = append(out, v)
	}
	sortByTime(out, func(v domain.Visitor) time.Time { return v.CreatedAt }, func(v domain.Visitor) string { return v.ID })
	return out, nil
}

func matchesVisitor(v domain.Visitor, needle string) bool {
	for _, field := range []string{v.FirstName, v.LastName, v.Email, v.Company, v.Phone} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (r *VisitorRepo) ListByEmail(_ context.Context, email string) ([]domain.Visitor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []domain.Visitor{}
	for _, v := range r.db.visitors {
		if strings.EqualFold(v.Email, email) {
			out = append(out, v)
		}
	}
	sortByTime(out, func(v domain.Visitor) time.Time { return v.CreatedAt }, func(v domain.Visitor) string { return v.ID })
	return out, nil
}

func (r *VisitorRepo) Update(_ context.Context, v *domain.Visitor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.visitors[v.ID]
	if !ok {
		return repo.ErrNotFound
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = r.db.now().UTC()
	r.db.visitors[v.ID] = *v
	return nil
}

// Delete removes the visitor along with its appointments, passes and check logs.
func (r *VisitorRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.visitors[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.visitors, id)
	for aid, a := range r.db.appointments {
		if a.VisitorID == id {
			delete(r.db.appointments, aid)
		}
	}
	for pid, p := range r.db.passes {
		if p.VisitorID == id {
			r.db.deletePassLocked(pid)
		}
	}
	return nil
}

func (r *VisitorRepo) MarkVerifiedByEmail(_ context.Context, email string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	now := r.db.now().UTC()
	for id, v := range r.db.visitors {
		if !strings.EqualFold(v.Email, email) {
			continue
		}
		v.IsVerified = true
		v.OTPHash = ""
		v.OTPExpires = nil
		v.UpdatedAt = now
		r.db.visitors[id] = v
		n++
	}
	return n, nil
}

func (r *VisitorRepo) ConsumeOTP(_ context.Context, id, hash string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v, ok := r.db.visitors[id]
	if !ok || hash == "" || v.OTPHash != hash {
		return false, nil
	}
	v.OTPHash = ""
	v.OTPExpires = nil
	v.UpdatedAt = r.db.now().UTC()
	r.db.visitors[id] = v
	return true, nil
}
