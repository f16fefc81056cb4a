package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnalyticsRepo struct{ pool *pgxpool.Pool }

func NewAnalyticsRepo(pool *pgxpool.Pool) *AnalyticsRepo { return &AnalyticsRepo{pool: pool} }

func (r *AnalyticsRepo) count(ctx context.Context, q string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int64
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("analytics count: %w", err)
	}
	return n, nil
}

func (r *AnalyticsRepo) CountVisitors(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM visitors`)
}

func (r *AnalyticsRepo) CountAppointments(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM appointments`)
}

func (r *AnalyticsRepo) CountOpenCheckLogs(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM check_logs WHERE check_out_time IS NULL`)
}

func (r *AnalyticsRepo) CountAppointmentsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM appointments WHERE scheduled_date >= $1 AND scheduled_date < $2`, from, to)
}

func (r *AnalyticsRepo) AppointmentStatusCounts(ctx context.Context) (map[domain.AppointmentStatus]int64, error) {
	const q = `SELECT status, count(*) FROM appointments GROUP BY status`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.AppointmentStatus]int64)
	for rows.Next() {
		var (
			status domain.AppointmentStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) monthly(ctx context.Context, table string, since time.Time) ([]domain.MonthlyCount, error) {
	q := `
SELECT EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC')::int AS y,
       EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int AS m,
       count(*)
FROM ` + table + `
WHERE created_at >= $1
GROUP BY y, m
ORDER BY y, m`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("monthly %s: %w", table, err)
	}
	defer rows.Close()

	out := []domain.MonthlyCount{}
	for rows.Next() {
		var mc domain.MonthlyCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) MonthlyVisitors(ctx context.Context, since time.Time) ([]domain.MonthlyCount, error) {
	return r.monthly(ctx, "visitors", since)
}

func (r *AnalyticsRepo) MonthlyAppointments(ctx context.Context, since time.Time) ([]domain.MonthlyCount, error) {
	return r.monthly(ctx, "appointments", since)
}

func (r *AnalyticsRepo) PopularTimes(ctx context.Context, limit int) ([]domain.TimeSlotCount, error) {
	const q = `
SELECT scheduled_time, count(*) AS n
FROM appointments
GROUP BY scheduled_time
ORDER BY n DESC, scheduled_time
LIMIT $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("popular times: %w", err)
	}
	defer rows.Close()

	out := []domain.TimeSlotCount{}
	for rows.Next() {
		var tc domain.TimeSlotCount
		if err := rows.Scan(&tc.Time, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) TopHosts(ctx context.Context, limit int) ([]domain.HostActivity, error) {
	const q = `
SELECT u.id, u.first_name, u.last_name, u.email, u.department, count(a.id) AS n
FROM appointments a
JOIN users u ON u.id = a.host_id
WHERE u.role = 'employee'
GROUP BY u.id, u.first_name, u.last_name, u.email, u.department
ORDER BY n DESC, u.email
LIMIT $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("top hosts: %w", err)
	}
	defer rows.Close()

	out := []domain.HostActivity{}
	for rows.Next() {
		var h domain.HostActivity
		if err := rows.Scan(&h.HostID, &h.FirstName, &h.LastName, &h.Email, &h.Department, &h.Count); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
