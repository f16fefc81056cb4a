package postgres

import (
	"context"
	"fmt"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const passColumns = `id, pass_number, visitor_id, appointment_id, qr_code, qr_code_image, valid_from, valid_until,
is_active, issued_by, organization_id, created_at, updated_at`

type PassRepo struct{ pool *pgxpool.Pool }

func NewPassRepo(pool *pgxpool.Pool) *PassRepo { return &PassRepo{pool: pool} }

func scanPass(row pgx.Row) (*domain.Pass, error) {
	var p domain.Pass
	if err := row.Scan(
		&p.ID, &p.PassNumber, &p.VisitorID, &p.AppointmentID, &p.QRCode, &p.QRCodeImage, &p.ValidFrom, &p.ValidUntil,
		&p.IsActive, &p.IssuedBy, &p.OrganizationID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *PassRepo) Create(ctx context.Context, p *domain.Pass) error {
	const q = `
INSERT INTO passes (id, pass_number, visitor_id, appointment_id, qr_code, qr_code_image, valid_from, valid_until,
                    is_active, issued_by, organization_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING created_at, updated_at`
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		p.ID, p.PassNumber, p.VisitorID, p.AppointmentID, p.QRCode, p.QRCodeImage, p.ValidFrom, p.ValidUntil,
		p.IsActive, p.IssuedBy, p.OrganizationID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (r *PassRepo) GetByID(ctx context.Context, id string) (*domain.Pass, error) {
	q := `SELECT ` + passColumns + ` FROM passes WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanPass(r.pool.QueryRow(ctx, q, id))
}

func (r *PassRepo) GetByNumber(ctx context.Context, passNumber string) (*domain.Pass, error) {
	q := `SELECT ` + passColumns + ` FROM passes WHERE pass_number=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanPass(r.pool.QueryRow(ctx, q, passNumber))
}

func (r *PassRepo) List(ctx context.Context, f domain.PassFilter) ([]domain.Pass, error) {
	q := `SELECT ` + passColumns + ` FROM passes
WHERE ($1::text = '' OR visitor_id = $1)
  AND ($2::text = '' OR appointment_id = $2)
  AND ($3::boolean IS NULL OR is_active = $3)
ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, f.VisitorID, f.AppointmentID, f.Active)
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	defer rows.Close()

	out := []domain.Pass{}
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PassRepo) LatestForAppointment(ctx context.Context, appointmentID string) (*domain.Pass, error) {
	q := `SELECT ` + passColumns + ` FROM passes WHERE appointment_id=$1 ORDER BY created_at DESC LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanPass(r.pool.QueryRow(ctx, q, appointmentID))
}

func (r *PassRepo) Update(ctx context.Context, p *domain.Pass) error {
	const q = `
UPDATE passes
SET valid_from=$2, valid_until=$3, is_active=$4, qr_code=$5, qr_code_image=$6, updated_at=now()
WHERE id=$1
RETURNING created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q, p.ID, p.ValidFrom, p.ValidUntil, p.IsActive, p.QRCode, p.QRCodeImage).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (r *PassRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.pool, `DELETE FROM passes WHERE id=$1`, id)
}
