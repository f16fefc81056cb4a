package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	Users service.UserService
}

func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	return r
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateUserRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	u, err := h.Users.Create(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, u)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.Users.List(r.Context(), domain.UserFilter{
		Role:           domain.Role(q.Get("role")),
		OrganizationID: q.Get("organization"),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.List(w, r, users)
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Get(r.Context(), idParam(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, u)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateUserRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	u, err := h.Users.Update(r.Context(), idParam(r), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, u)
}

func (h *UserHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), idParam(r)); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Message(w, r, "User deleted successfully")
}
