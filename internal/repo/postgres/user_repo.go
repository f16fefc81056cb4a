package postgres

import (
	"context"
	"fmt"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, phone, department, organization_id, is_active, created_at, updated_at`

type UserRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *UserRepo { return &UserRepo{pool: pool} }

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.Phone,
		&u.Department, &u.OrganizationID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	const q = `
INSERT INTO users (id, email, password_hash, first_name, last_name, role, phone, department, organization_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING created_at, updated_at`
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Phone, u.Department, u.OrganizationID, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapError(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users
WHERE ($1::text = '' OR role = $1)
  AND ($2::text = '' OR organization_id = $2)
ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, string(f.Role), f.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	const q = `
UPDATE users
SET email=$2, password_hash=$3, first_name=$4, last_name=$5, role=$6, phone=$7,
    department=$8, organization_id=$9, is_active=$10, updated_at=now()
WHERE id=$1
RETURNING created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.pool.QueryRow(ctx, q,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Phone, u.Department, u.OrganizationID, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapError(err)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.pool, `DELETE FROM users WHERE id=$1`, id)
}

func (r *UserRepo) CountByOrganization(ctx context.Context, orgID string) (int64, error) {
	const q = `SELECT count(*) FROM users WHERE organization_id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int64
	if err := r.pool.QueryRow(ctx, q, orgID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count organization users: %w", err)
	}
	return n, nil
}
