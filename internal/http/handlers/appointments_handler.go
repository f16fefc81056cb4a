package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/middleware"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/go-chi/chi/v5"
)

type AppointmentHandler struct {
	Appointments service.AppointmentService
}

func NewAppointmentHandler(appointments service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{Appointments: appointments}
}

func (h *AppointmentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)

	deciders := middleware.Require(middleware.AnyRole(domain.RoleAdmin, domain.RoleSecurity, domain.RoleEmployee))
	r.With(deciders).Put("/{id}/approve", h.approve)
	r.With(deciders).Put("/{id}/reject", h.reject)
	return r
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateAppointmentRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	a, err := h.Appointments.Create(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, a)
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Appointments.List(r.Context(), domain.AppointmentFilter{
		Status:    domain.AppointmentStatus(q.Get("status")),
		HostID:    q.Get("host"),
		VisitorID: q.Get("visitor"),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.List(w, r, list)
}

func (h *AppointmentHandler) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.Appointments.Get(r.Context(), idParam(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, a)
}

func (h *AppointmentHandler) update(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateAppointmentRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	a, err := h.Appointments.Update(r.Context(), idParam(r), &in, actorID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, a)
}

func (h *AppointmentHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Appointments.Delete(r.Context(), idParam(r)); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Message(w, r, "Appointment deleted successfully")
}

func (h *AppointmentHandler) approve(w http.ResponseWriter, r *http.Request) {
	var in domain.StatusChangeRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	a, err := h.Appointments.Approve(r.Context(), idParam(r), &in, actorID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, a)
}

func (h *AppointmentHandler) reject(w http.ResponseWriter, r *http.Request) {
	var in domain.StatusChangeRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	a, err := h.Appointments.Reject(r.Context(), idParam(r), &in, actorID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, a)
}
