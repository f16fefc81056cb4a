package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrganizationHandler struct {
	Organizations service.OrganizationService
}

func NewOrganizationHandler(orgs service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{Organizations: orgs}
}

func (h *OrganizationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	return r
}

func (h *OrganizationHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateOrganizationRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	o, err := h.Organizations.Create(r.Context(), &in, actorID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, o)
}

func (h *OrganizationHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.Organizations.List(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.List(w, r, list)
}

func (h *OrganizationHandler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Organizations.Get(r.Context(), idParam(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, o)
}

func (h *OrganizationHandler) update(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateOrganizationRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	o, err := h.Organizations.Update(r.Context(), idParam(r), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, o)
}

func (h *OrganizationHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Organizations.Delete(r.Context(), idParam(r)); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Message(w, r, "Organization deleted successfully")
}
