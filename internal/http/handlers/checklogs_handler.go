package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/middleware"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/go-chi/chi/v5"
)

type CheckLogHandler struct {
	CheckLogs service.CheckLogService
}

func NewCheckLogHandler(checkLogs service.CheckLogService) *CheckLogHandler {
	return &CheckLogHandler{CheckLogs: checkLogs}
}

func (h *CheckLogHandler) Routes() chi.Router {
	r := chi.NewRouter()
	staff := middleware.Require(middleware.AnyRole(domain.RoleSecurity, domain.RoleAdmin))

	r.With(staff).Post("/checkin", h.checkIn)
	r.With(staff).Post("/checkout", h.checkOut)
	r.Get("/", h.list)
	r.Get("/active", h.active)
	r.Get("/{id}", h.get)
	return r
}

func (h *CheckLogHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	var in domain.CheckInRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	l, err := h.CheckLogs.CheckIn(r.Context(), &in, actorID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, l)
}

func (h *CheckLogHandler) checkOut(w http.ResponseWriter, r *http.Request) {
	var in domain.CheckOutRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	l, err := h.CheckLogs.CheckOut(r.Context(), &in, actorID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, l)
}

func (h *CheckLogHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.CheckLogs.List(r.Context(), domain.CheckLogFilter{
		VisitorID: q.Get("visitor"),
		PassID:    q.Get("pass"),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.List(w, r, list)
}

func (h *CheckLogHandler) active(w http.ResponseWriter, r *http.Request) {
	list, err := h.CheckLogs.Active(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.List(w, r, list)
}

func (h *CheckLogHandler) get(w http.ResponseWriter, r *http.Request) {
	l, err := h.CheckLogs.Get(r.Context(), idParam(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, l)
}
