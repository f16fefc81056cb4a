package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/go-chi/chi/v5"
)

type AnalyticsHandler struct {
	Analytics service.AnalyticsService
}

func NewAnalyticsHandler(analytics service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: analytics}
}

func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/dashboard", h.dashboard)
	r.Get("/trends", h.trends)
	r.Get("/times", h.times)
	r.Get("/hosts", h.hosts)
	return r
}

func (h *AnalyticsHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Analytics.Dashboard(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, stats)
}

func (h *AnalyticsHandler) trends(w http.ResponseWriter, r *http.Request) {
	t, err := h.Analytics.Trends(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, t)
}

func (h *AnalyticsHandler) times(w http.ResponseWriter, r *http.Request) {
	list, err := h.Analytics.PopularTimes(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.List(w, r, list)
}

func (h *AnalyticsHandler) hosts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Analytics.TopHosts(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.List(w, r, list)
}
