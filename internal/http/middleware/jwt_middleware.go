package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/pkg/logger"
)

type ctxKey string

const ctxUser ctxKey = "user"

// TokenAuthenticator resolves a bearer token to the active user it was issued for.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// RequireJWT rejects requests without a valid bearer token and stores the user on the context.
func RequireJWT(auth TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Error(w, r, domain.ErrNoToken)
				return
			}
			u, err := auth.Authenticate(r.Context(), strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				response.Error(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUser, u)
			ctx = logger.WithUserID(ctx, u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the authenticated user, or nil outside RequireJWT.
func CurrentUser(r *http.Request) *domain.User {
	u, _ := r.Context().Value(ctxUser).(*domain.User)
	return u
}

// WithUser attaches u to ctx the same way RequireJWT does.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}
