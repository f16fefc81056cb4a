package handlers

import (
	"net/http"
	"strconv"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/middleware"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/platform/qr"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/go-chi/chi/v5"
)

type PassHandler struct {
	Passes service.PassService
}

func NewPassHandler(passes service.PassService) *PassHandler {
	return &PassHandler{Passes: passes}
}

func (h *PassHandler) Routes() chi.Router {
	r := chi.NewRouter()
	staff := middleware.Require(middleware.AnyRole(domain.RoleSecurity, domain.RoleAdmin))

	r.With(staff).Post("/", h.issue)
	r.Get("/", h.list)
	r.Get("/verify/{passNumber}", h.verify)
	r.Get("/{id}", h.get)
	r.With(staff).Put("/{id}", h.update)
	r.With(staff).Delete("/{id}", h.remove)
	r.Get("/{id}/badge", h.badge)
	return r
}

func (h *PassHandler) issue(w http.ResponseWriter, r *http.Request) {
	var in domain.CreatePassRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	p, err := h.Passes.Issue(r.Context(), &in, actorID(r), qr.FormJSON)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, p)
}

func (h *PassHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Passes.List(r.Context(), domain.PassFilter{
		VisitorID:     q.Get("visitor"),
		AppointmentID: q.Get("appointment"),
		Active:        boolQuery(r, "active"),
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.List(w, r, list)
}

func (h *PassHandler) verify(w http.ResponseWriter, r *http.Request) {
	p, err := h.Passes.VerifyByNumber(r.Context(), chi.URLParam(r, "passNumber"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, p)
}

func (h *PassHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Passes.Get(r.Context(), idParam(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, p)
}

func (h *PassHandler) update(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdatePassRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	p, err := h.Passes.Update(r.Context(), idParam(r), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, p)
}

func (h *PassHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Passes.Delete(r.Context(), idParam(r)); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Message(w, r, "Pass deleted successfully")
}

func (h *PassHandler) badge(w http.ResponseWriter, r *http.Request) {
	pdf, number, err := h.Passes.Badge(r.Context(), idParam(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=pass-"+number+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
