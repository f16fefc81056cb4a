package postgres

import (
	"context"
	"fmt"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const organizationColumns = `id, name, slug, description, address, contact, admin_user_id, is_active, settings, created_at, updated_at`

type OrganizationRepo struct{ pool *pgxpool.Pool }

func NewOrganizationRepo(pool *pgxpool.Pool) *OrganizationRepo { return &OrganizationRepo{pool: pool} }

// address, contact and settings are JSONB; pgx marshals the structs directly.
func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var o domain.Organization
	if err := row.Scan(
		&o.ID, &o.Name, &o.Slug, &o.Description, &o.Address, &o.Contact, &o.AdminUserID, &o.IsActive, &o.Settings,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &o, nil
}

func (r *OrganizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	const q = `
INSERT INTO organizations (id, name, slug, description, address, contact, admin_user_id, is_active, settings)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING created_at, updated_at`
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		o.ID, o.Name, o.Slug, o.Description, o.Address, o.Contact, o.AdminUserID, o.IsActive, o.Settings,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	return mapError(err)
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	q := `SELECT ` + organizationColumns + ` FROM organizations WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanOrganization(r.pool.QueryRow(ctx, q, id))
}

func (r *OrganizationRepo) List(ctx context.Context) ([]domain.Organization, error) {
	q := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	out := []domain.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *OrganizationRepo) Update(ctx context.Context, o *domain.Organization) error {
	const q = `
UPDATE organizations
SET name=$2, slug=$3, description=$4, address=$5, contact=$6, is_active=$7, settings=$8, updated_at=now()
WHERE id=$1
RETURNING created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		o.ID, o.Name, o.Slug, o.Description, o.Address, o.Contact, o.IsActive, o.Settings,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	return mapError(err)
}

// Delete surfaces the users foreign key as repo.ErrConflict.
func (r *OrganizationRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.pool, `DELETE FROM organizations WHERE id=$1`, id)
}
