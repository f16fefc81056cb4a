package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/go-chi/chi/v5"
)

type VisitorHandler struct {
	Visitors service.VisitorService
	Photos   PhotoStore
}

func NewVisitorHandler(visitors service.VisitorService, photos PhotoStore) *VisitorHandler {
	return &VisitorHandler{Visitors: visitors, Photos: photos}
}

// PublicRoutes are the self-service OTP endpoints. All of them share limit.
func (h *VisitorHandler) PublicRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/send-otp", h.sendOTP)
	r.With(limit).Post("/verify-otp", h.verifyOTP)
	r.With(limit).Post("/register-with-otp", h.registerWithOTP)
}

func (h *VisitorHandler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

func (h *VisitorHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateVisitorRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	v, err := h.Visitors.Create(r.Context(), &in, actorID(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, v)
}

func (h *VisitorHandler) list(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.Visitors.List(r.Context(), domain.VisitorFilter{Search: r.URL.Query().Get("search")})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.List(w, r, visitors)
}

func (h *VisitorHandler) get(w http.ResponseWriter, r *http.Request) {
	v, err := h.Visitors.Get(r.Context(), idParam(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, v)
}

func (h *VisitorHandler) update(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateVisitorRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	v, err := h.Visitors.Update(r.Context(), idParam(r), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, v)
}

func (h *VisitorHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Visitors.Delete(r.Context(), idParam(r)); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Message(w, r, "Visitor deleted successfully")
}

func (h *VisitorHandler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var in domain.SendOTPRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.Visitors.SendOTP(r.Context(), &in); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Message(w, r, "OTP sent successfully")
}

func (h *VisitorHandler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in domain.VerifyOTPRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	n, err := h.Visitors.VerifyOTP(r.Context(), &in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, map[string]any{"message": "OTP verified successfully", "verified": n})
}

type registerWithOTPRequest struct {
	domain.CreateVisitorRequest
	OTP string `json:"otp,omitempty"`
}

// registerWithOTP accepts JSON or a multipart form carrying an optional photo file.
func (h *VisitorHandler) registerWithOTP(w http.ResponseWriter, r *http.Request) {
	var in registerWithOTPRequest
	var photo string
	if isMultipart(r) {
		if err := h.Photos.parseForm(w, r); err != nil {
			response.Error(w, r, err)
			return
		}
		in = formVisitor(r)
		saved, err := h.Photos.save(r, "photo")
		if err != nil {
			response.Error(w, r, err)
			return
		}
		photo = saved
		if photo != "" {
			in.Photo = photo
		}
	} else if err := decodeJSON(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}

	v, err := h.Visitors.RegisterWithOTP(r.Context(), &in.CreateVisitorRequest, in.OTP)
	if err != nil {
		h.Photos.discard(photo)
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, v)
}

func formVisitor(r *http.Request) registerWithOTPRequest {
	in := registerWithOTPRequest{
		CreateVisitorRequest: domain.CreateVisitorRequest{
			FirstName: r.FormValue("firstName"),
			LastName:  r.FormValue("lastName"),
			Email:     r.FormValue("email"),
			Phone:     r.FormValue("phone"),
			Company:   r.FormValue("company"),
			IDType:    domain.IDType(r.FormValue("idType")),
			IDNumber:  r.FormValue("idNumber"),
			Purpose:   r.FormValue("purpose"),
		},
		OTP: r.FormValue("otp"),
	}
	if org := r.FormValue("organization"); org != "" {
		in.Organization = &org
	}
	return in
}
