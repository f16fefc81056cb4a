package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/middleware"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// Routes mounts login publicly; register and me sit behind requireJWT.
func (h *AuthHandler) Routes(requireJWT func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.login)
	r.Group(func(r chi.Router) {
		r.Use(requireJWT)
		r.With(middleware.Require(middleware.AnyRole(domain.RoleAdmin))).Post("/register", h.register)
		r.Get("/me", h.me)
	})
	return r
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateUserRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	u, err := h.Auth.Register(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, u)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	out, err := h.Auth.Login(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, out)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Me(r.Context(), actorID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, u)
}
