package postgres

import (
	"context"
	"fmt"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `id, visitor_id, host_id, scheduled_date, scheduled_time, purpose, status, location, notes,
approved_by, approved_at, organization_id, created_at, updated_at`

type AppointmentRepo struct{ pool *pgxpool.Pool }

func NewAppointmentRepo(pool *pgxpool.Pool) *AppointmentRepo { return &AppointmentRepo{pool: pool} }

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := row.Scan(
		&a.ID, &a.VisitorID, &a.HostID, &a.ScheduledDate, &a.ScheduledTime, &a.Purpose, &a.Status, &a.Location, &a.Notes,
		&a.ApprovedBy, &a.ApprovedAt, &a.OrganizationID, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *AppointmentRepo) Create(ctx context.Context, a *domain.Appointment) error {
	const q = `
INSERT INTO appointments (id, visitor_id, host_id, scheduled_date, scheduled_time, purpose, status, location, notes,
                          approved_by, approved_at, organization_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING created_at, updated_at`
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		a.ID, a.VisitorID, a.HostID, a.ScheduledDate, a.ScheduledTime, a.Purpose, a.Status, a.Location, a.Notes,
		a.ApprovedBy, a.ApprovedAt, a.OrganizationID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapError(err)
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanAppointment(r.pool.QueryRow(ctx, q, id))
}

func (r *AppointmentRepo) List(ctx context.Context, f domain.AppointmentFilter) ([]domain.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments
WHERE ($1::text = '' OR status = $1)
  AND ($2::text = '' OR host_id = $2)
  AND ($3::text = '' OR visitor_id = $3)
ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, string(f.Status), f.HostID, f.VisitorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	out := []domain.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UpdateIfStatus is a compare-and-set on status; a lost race reports repo.ErrConflict.
func (r *AppointmentRepo) UpdateIfStatus(ctx context.Context, a *domain.Appointment, expected domain.AppointmentStatus) error {
	const q = `
UPDATE appointments
SET host_id=$3, scheduled_date=$4, scheduled_time=$5, purpose=$6, status=$7, location=$8, notes=$9,
    approved_by=$10, approved_at=$11, updated_at=now()
WHERE id=$1 AND status=$2
RETURNING created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		a.ID, expected, a.HostID, a.ScheduledDate, a.ScheduledTime, a.Purpose, a.Status, a.Location, a.Notes,
		a.ApprovedBy, a.ApprovedAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err = mapError(err); err == repo.ErrNotFound {
		return r.missOrConflict(ctx, a.ID)
	}
	return err
}

func (r *AppointmentRepo) DeleteIfStatus(ctx context.Context, id string, expected domain.AppointmentStatus) error {
	err := execOne(ctx, r.pool, `DELETE FROM appointments WHERE id=$1 AND status=$2`, id, expected)
	if err == repo.ErrNotFound {
		return r.missOrConflict(ctx, id)
	}
	return err
}

// missOrConflict tells a vanished row apart from one whose status moved on.
func (r *AppointmentRepo) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM appointments WHERE id=$1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check appointment: %w", err)
	}
	if exists {
		return repo.ErrConflict
	}
	return repo.ErrNotFound
}
