// Package postgres implements the repo contracts on pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 3 * time.Second

// constraintFields maps unique constraints to the request field they guard.
var constraintFields = map[string]string{
	"users_email_key":          "email",
	"passes_pass_number_key":   "passNumber",
	"organizations_name_key":   "name",
	"organizations_slug_key":   "slug",
	"check_logs_open_pass_key": "pass",
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			field, ok := constraintFields[pgErr.ConstraintName]
			if !ok {
				field = pgErr.ConstraintName
			}
			return &repo.DuplicateError{Field: field}
		case "23503":
			return repo.ErrConflict
		}
	}
	return err
}

// execOne runs a write that must touch exactly one row.
func execOne(ctx context.Context, pool *pgxpool.Pool, q string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tag, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// New wires every repository onto one pool.
func New(pool *pgxpool.Pool) repo.Store {
	return repo.Store{
		Users:         NewUserRepo(pool),
		Visitors:      NewVisitorRepo(pool),
		Appointments:  NewAppointmentRepo(pool),
		Passes:        NewPassRepo(pool),
		CheckLogs:     NewCheckLogRepo(pool),
		Organizations: NewOrganizationRepo(pool),
		Analytics:     NewAnalyticsRepo(pool),
		RateLimits:    NewRateLimitRepo(pool),
	}
}
