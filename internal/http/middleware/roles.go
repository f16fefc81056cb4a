package middleware

import (
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/response"
)

// Predicate decides whether a user may reach a route.
type Predicate func(u *domain.User) bool

func AnyRole(roles ...domain.Role) Predicate {
	return func(u *domain.User) bool {
		for _, role := range roles {
			if u.Role == role {
				return true
			}
		}
		return false
	}
}

func Authenticated(u *domain.User) bool { return u != nil }

func Or(ps ...Predicate) Predicate {
	return func(u *domain.User) bool {
		for _, p := range ps {
			if p(u) {
				return true
			}
		}
		return false
	}
}

func And(ps ...Predicate) Predicate {
	return func(u *domain.User) bool {
		for _, p := range ps {
			if !p(u) {
				return false
			}
		}
		return true
	}
}

// Require must run after RequireJWT.
func Require(p Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := CurrentUser(r)
			if u == nil {
				response.Error(w, r, domain.ErrNotAuthenticated)
				return
			}
			if !p(u) {
				response.Error(w, r, domain.ErrInsufficientPermissions.
					WithMessage("User role "+string(u.Role)+" is not authorized to access this route"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
