package memory

import (
	"context"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
)

type CheckLogRepo struct{ db *DB }

// CreateOpen checks for an open log and inserts under one lock, so concurrent check-ins cannot both succeed.
func (r *CheckLogRepo) CreateOpen(_ context.Context, l *domain.CheckLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.checkLogs {
		if existing.PassID == l.PassID && existing.IsOpen() {
			return &repo.DuplicateError{Field: "pass"}
		}
	}
	r.db.stamp(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if l.CheckInTime.IsZero() {
		l.CheckInTime = l.CreatedAt
	}
	l.CheckOutTime = nil
	r.db.checkLogs[l.ID] = *l
	return nil
}

func (r *CheckLogRepo) GetByID(_ context.Context, id string) (*domain.CheckLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	l, ok := r.db.checkLogs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &l, nil
}

func (r *CheckLogRepo) List(_ context.Context, f domain.CheckLogFilter) ([]domain.CheckLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []domain.CheckLog{}
	for _, l := range r.db.checkLogs {
		if f.OpenOnly && !l.IsOpen() {
			continue
		}
		if f.VisitorID != "" && l.VisitorID != f.VisitorID {
			continue
		}
		if f.PassID != "" && l.PassID != f.PassID {
			continue
		}
		out = append(out, l)
	}
	at := func(l domain.CheckLog) time.Time { return l.CreatedAt }
	if f.OpenOnly {
		at = func(l domain.CheckLog) time.Time { return l.CheckInTime }
	}
	sortByTime(out, at, func(l domain.CheckLog) string { return l.ID })
	return out, nil
}

func (r *CheckLogRepo) Close(_ context.Context, passID string, at time.Time, by string, notes *string) (*domain.CheckLog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, l := range r.db.checkLogs {
		if l.PassID != passID || !l.IsOpen() {
			continue
		}
		out := at.UTC()
		if out.Before(l.CheckInTime) {
			out = l.CheckInTime
		}
		l.CheckOutTime = &out
		if by != "" {
			l.CheckOutBy = &by
		}
		if notes != nil && *notes != "" {
			l.Notes = *notes
		}
		l.UpdatedAt = r.db.now().UTC()
		r.db.checkLogs[id] = l
		return &l, nil
	}
	return nil, repo.ErrNotFound
}
