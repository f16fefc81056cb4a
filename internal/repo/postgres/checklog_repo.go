package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const checkLogColumns = `id, visitor_id, pass_id, check_in_time, check_out_time, check_in_by, check_out_by, location, notes,
organization_id, created_at, updated_at`

type CheckLogRepo struct{ pool *pgxpool.Pool }

func NewCheckLogRepo(pool *pgxpool.Pool) *CheckLogRepo { return &CheckLogRepo{pool: pool} }

func scanCheckLog(row pgx.Row) (*domain.CheckLog, error) {
	var l domain.CheckLog
	if err := row.Scan(
		&l.ID, &l.VisitorID, &l.PassID, &l.CheckInTime, &l.CheckOutTime, &l.CheckInBy, &l.CheckOutBy, &l.Location, &l.Notes,
		&l.OrganizationID, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &l, nil
}

// CreateOpen relies on check_logs_open_pass_key to reject a second open log for the same pass.
func (r *CheckLogRepo) CreateOpen(ctx context.Context, l *domain.CheckLog) error {
	const q = `
INSERT INTO check_logs (id, visitor_id, pass_id, check_in_time, check_in_by, location, notes, organization_id)
VALUES ($1,$2,$3,COALESCE($4, now()),$5,$6,$7,$8)
RETURNING check_in_time, created_at, updated_at`
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	var checkIn *time.Time
	if !l.CheckInTime.IsZero() {
		checkIn = &l.CheckInTime
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		l.ID, l.VisitorID, l.PassID, checkIn, l.CheckInBy, l.Location, l.Notes, l.OrganizationID,
	).Scan(&l.CheckInTime, &l.CreatedAt, &l.UpdatedAt)
	l.CheckOutTime = nil
	return mapError(err)
}

func (r *CheckLogRepo) GetByID(ctx context.Context, id string) (*domain.CheckLog, error) {
	q := `SELECT ` + checkLogColumns + ` FROM check_logs WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanCheckLog(r.pool.QueryRow(ctx, q, id))
}

func (r *CheckLogRepo) List(ctx context.Context, f domain.CheckLogFilter) ([]domain.CheckLog, error) {
	order := "created_at DESC"
	if f.OpenOnly {
		order = "check_in_time DESC"
	}
	q := `SELECT ` + checkLogColumns + ` FROM check_logs
WHERE (NOT $1::boolean OR check_out_time IS NULL)
  AND ($2::text = '' OR visitor_id = $2)
  AND ($3::text = '' OR pass_id = $3)
ORDER BY ` + order
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, f.OpenOnly, f.VisitorID, f.PassID)
	if err != nil {
		return nil, fmt.Errorf("list check logs: %w", err)
	}
	defer rows.Close()

	out := []domain.CheckLog{}
	for rows.Next() {
		l, err := scanCheckLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// Close is a single conditional update, so two concurrent check-outs close the log once.
func (r *CheckLogRepo) Close(ctx context.Context, passID string, at time.Time, by string, notes *string) (*domain.CheckLog, error) {
	q := `
UPDATE check_logs
SET check_out_time = GREATEST($2, check_in_time),
    check_out_by = COALESCE($3, check_out_by),
    notes = COALESCE(NULLIF($4::text, ''), notes),
    updated_at = now()
WHERE pass_id = $1 AND check_out_time IS NULL
RETURNING ` + checkLogColumns
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanCheckLog(r.pool.QueryRow(ctx, q, passID, at, nullIfEmpty(by), utils.Deref(notes)))
}
