package service

import (
	"context"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	trendMonths = 12
	topLimit    = 10
)

type AnalyticsService interface {
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
	Trends(ctx context.Context) (*domain.Trends, error)
	PopularTimes(ctx context.Context) ([]domain.TimeSlotCount, error)
	TopHosts(ctx context.Context) ([]domain.HostActivity, error)
}

type analyticsService struct {
	deps Deps
}

func (s *analyticsService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	a := s.deps.Store.Analytics
	now := s.deps.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats := &domain.DashboardStats{}
	var counts map[domain.AppointmentStatus]int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalVisitors, err = a.CountVisitors(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalAppointments, err = a.CountAppointments(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveVisitors, err = a.CountOpenCheckLogs(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TodaysAppointments, err = a.CountAppointmentsBetween(gctx, dayStart, dayStart.AddDate(0, 0, 1))
		return err
	})
	g.Go(func() (err error) {
		counts, err = a.AppointmentStatusCounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.AppointmentStatusCounts = make(map[domain.AppointmentStatus]int64, len(domain.AllStatuses))
	for _, st := range domain.AllStatuses {
		stats.AppointmentStatusCounts[st] = counts[st]
	}
	return stats, nil
}

// Trends reports the trailing twelve UTC months, oldest first, with empty months as zero.
func (s *analyticsService) Trends(ctx context.Context) (*domain.Trends, error) {
	now := s.deps.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trendMonths - 1), 0)

	var visitors, appointments []domain.MonthlyCount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		visitors, err = s.deps.Store.Analytics.MonthlyVisitors(gctx, first)
		return err
	})
	g.Go(func() (err error) {
		appointments, err = s.deps.Store.Analytics.MonthlyAppointments(gctx, first)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &domain.Trends{
		Visitors:     fillMonths(first, visitors),
		Appointments: fillMonths(first, appointments),
	}, nil
}

func fillMonths(first time.Time, got []domain.MonthlyCount) []domain.MonthlyCount {
	byMonth := make(map[[2]int]int64, len(got))
	for _, mc := range got {
		byMonth[[2]int{mc.Year, mc.Month}] = mc.Count
	}
	out := make([]domain.MonthlyCount, 0, trendMonths)
	for i := 0; i < trendMonths; i++ {
		m := first.AddDate(0, i, 0)
		out = append(out, domain.MonthlyCount{
			Year:  m.Year(),
			Month: int(m.Month()),
			Count: byMonth[[2]int{m.Year(), int(m.Month())}],
		})
	}
	return out
}

func (s *analyticsService) PopularTimes(ctx context.Context) ([]domain.TimeSlotCount, error) {
	return s.deps.Store.Analytics.PopularTimes(ctx, topLimit)
}

func (s *analyticsService) TopHosts(ctx context.Context) ([]domain.HostActivity, error) {
	return s.deps.Store.Analytics.TopHosts(ctx, topLimit)
}
