package memory

import (
	"context"
	"sort"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
)

type AnalyticsRepo struct{ db *DB }

func (r *AnalyticsRepo) CountVisitors(context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.visitors)), nil
}

func (r *AnalyticsRepo) CountAppointments(context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.appointments)), nil
}

func (r *AnalyticsRepo) CountOpenCheckLogs(context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, l := range r.db.checkLogs {
		if l.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (r *AnalyticsRepo) CountAppointmentsBetween(_ context.Context, from, to time.Time) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, a := range r.db.appointments {
		if !a.ScheduledDate.Before(from) && a.ScheduledDate.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *AnalyticsRepo) AppointmentStatusCounts(context.Context) (map[domain.AppointmentStatus]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make(map[domain.AppointmentStatus]int64)
	for _, a := range r.db.appointments {
		out[a.Status]++
	}
	return out, nil
}

func (r *AnalyticsRepo) MonthlyVisitors(_ context.Context, since time.Time) ([]domain.MonthlyCount, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	stamps := make([]time.Time, 0, len(r.db.visitors))
	for _, v := range r.db.visitors {
		stamps = append(stamps, v.CreatedAt)
	}
	return bucketByMonth(stamps, since), nil
}

func (r *AnalyticsRepo) MonthlyAppointments(_ context.Context, since time.Time) ([]domain.MonthlyCount, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	stamps := make([]time.Time, 0, len(r.db.appointments))
	for _, a := range r.db.appointments {
		stamps = append(stamps, a.CreatedAt)
	}
	return bucketByMonth(stamps, since), nil
}

func bucketByMonth(stamps []time.Time, since time.Time) []domain.MonthlyCount {
	type ym struct{ y, m int }
	counts := make(map[ym]int64)
	for _, ts := range stamps {
		if ts.Before(since) {
			continue
		}
		ts = ts.UTC()
		counts[ym{ts.Year(), int(ts.Month())}]++
	}
	out := make([]domain.MonthlyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.MonthlyCount{Year: k.y, Month: k.m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func (r *AnalyticsRepo) PopularTimes(_ context.Context, limit int) ([]domain.TimeSlotCount, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	counts := make(map[string]int64)
	for _, a := range r.db.appointments {
		counts[a.ScheduledTime]++
	}
	out := make([]domain.TimeSlotCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, domain.TimeSlotCount{Time: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Time < out[j].Time
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AnalyticsRepo) TopHosts(_ context.Context, limit int) ([]domain.HostActivity, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	counts := make(map[string]int64)
	for _, a := range r.db.appointments {
		counts[a.HostID]++
	}
	out := []domain.HostActivity{}
	for id, n := range counts {
		u, ok := r.db.users[id]
		if !ok || u.Role != domain.RoleEmployee {
			continue
		}
		out = append(out, domain.HostActivity{
			HostID:     u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			Department: u.Department,
			Count:      n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Email < out[j].Email
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
