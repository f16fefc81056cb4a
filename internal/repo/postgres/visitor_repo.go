package postgres

import (
	"context"
	"fmt"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const visitorColumns = `id, first_name, last_name, email, phone, company, photo, id_type, id_number, purpose,
is_verified, otp_hash, otp_expires, created_by, organization_id, created_at, updated_at`

type VisitorRepo struct{ pool *pgxpool.Pool }

func NewVisitorRepo(pool *pgxpool.Pool) *VisitorRepo { return &VisitorRepo{pool: pool} }

func scanVisitor(row pgx.Row) (*domain.Visitor, error) {
	var v domain.Visitor
	if err := row.Scan(
		&v.ID, &v.FirstName, &v.LastName, &v.Email, &v.Phone, &v.Company, &v.Photo, &v.IDType, &v.IDNumber, &v.Purpose,
		&v.IsVerified, &v.OTPHash, &v.OTPExpires, &v.CreatedBy, &v.OrganizationID, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

func (r *VisitorRepo) collect(ctx context.Context, q string, args ...any) ([]domain.Visitor, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	defer rows.Close()

	out := []domain.Visitor{}
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *VisitorRepo) Create(ctx context.Context, v *domain.Visitor) error {
	const q = `
INSERT INTO visitors (id, first_name, last_name, email, phone, company, photo, id_type, id_number, purpose,
                      is_verified, otp_hash, otp_expires, created_by, organization_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING created_at, updated_at`
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		v.ID, v.FirstName, v.LastName, v.Email, v.Phone, v.Company, v.Photo, v.IDType, v.IDNumber, v.Purpose,
		v.IsVerified, v.OTPHash, v.OTPExpires, v.CreatedBy, v.OrganizationID,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	return mapError(err)
}

func (r *VisitorRepo) GetByID(ctx context.Context, id string) (*domain.Visitor, error) {
	q := `SELECT ` + visitorColumns + ` FROM visitors WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanVisitor(r.pool.QueryRow(ctx, q, id))
}

func (r *VisitorRepo) List(ctx context.Context, f domain.VisitorFilter) ([]domain.Visitor, error) {
	q := `SELECT ` + visitorColumns + ` FROM visitors
WHERE ($1::text = '' OR first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%'
       OR email ILIKE '%' || $1 || '%' OR company ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')
  AND ($2::text = '' OR created_by = $2)
ORDER BY created_at DESC`
	return r.collect(ctx, q, f.Search, f.CreatedBy)
}

func (r *VisitorRepo) ListByEmail(ctx context.Context, email string) ([]domain.Visitor, error) {
	q := `SELECT ` + visitorColumns + ` FROM visitors WHERE lower(email)=lower($1) ORDER BY created_at DESC`
	return r.collect(ctx, q, email)
}

func (r *VisitorRepo) Update(ctx context.Context, v *domain.Visitor) error {
	const q = `
UPDATE visitors
SET first_name=$2, last_name=$3, email=$4, phone=$5, company=$6, photo=$7, id_type=$8, id_number=$9,
    purpose=$10, is_verified=$11, otp_hash=$12, otp_expires=$13, updated_at=now()
WHERE id=$1
RETURNING created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		v.ID, v.FirstName, v.LastName, v.Email, v.Phone, v.Company, v.Photo, v.IDType, v.IDNumber,
		v.Purpose, v.IsVerified, v.OTPHash, v.OTPExpires,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	return mapError(err)
}

func (r *VisitorRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.pool, `DELETE FROM visitors WHERE id=$1`, id)
}

func (r *VisitorRepo) MarkVerifiedByEmail(ctx context.Context, email string) (int64, error) {
	const q = `
UPDATE visitors
SET is_verified = true, otp_hash = '', otp_expires = NULL, updated_at = now()
WHERE lower(email) = lower($1)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, email)
	if err != nil {
		return 0, fmt.Errorf("mark visitors verified: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ConsumeOTP is a compare-and-clear, so concurrent requests presenting the same code consume it once.
func (r *VisitorRepo) ConsumeOTP(ctx context.Context, id, hash string) (bool, error) {
	const q = `
UPDATE visitors
SET otp_hash = '', otp_expires = NULL, updated_at = now()
WHERE id = $1 AND otp_hash = $2 AND otp_hash <> ''`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, id, hash)
	if err != nil {
		return false, fmt.Errorf("consume visitor otp: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
