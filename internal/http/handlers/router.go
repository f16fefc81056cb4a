package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/middleware"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/diagnosis/visitor-pass/pkg/config"
	mw "github.com/diagnosis/visitor-pass/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const serviceName = "visitor-pass"

type RouterDeps struct {
	Config   *config.Config
	Services *service.Services
	// RateLimits counts public OTP requests. Nil disables limiting.
	RateLimits repo.RateCounter
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(response.NotFound)
	r.MethodNotAllowed(response.MethodNotAllowed)

	svc := d.Services
	requireJWT := middleware.RequireJWT(svc.Auth)
	admin := middleware.Require(middleware.AnyRole(domain.RoleAdmin))

	otpLimit := func(next http.Handler) http.Handler { return next }
	if d.RateLimits != nil {
		otpLimit = middleware.NewRateLimiter(d.RateLimits, middleware.RateLimitConfig{
			Requests: d.Config.RateLimit.OTPRequests,
			Window:   d.Config.RateLimit.OTPWindow,
			Scope:    "otp",
			KeyFunc:  middleware.TrustedClientIPKey(middleware.ParseTrustedProxies(d.Config.RateLimit.TrustedProxies)),
		}).Middleware()
	}

	visitors := NewVisitorHandler(svc.Visitors, PhotoStore{Dir: d.Config.Upload.Dir, MaxSize: d.Config.Upload.MaxSize})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", NewAuthHandler(svc.Auth).Routes(requireJWT))

		r.Route("/visitors", func(r chi.Router) {
			visitors.PublicRoutes(r, otpLimit)
			r.Group(func(r chi.Router) {
				r.Use(requireJWT)
				visitors.Routes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireJWT)
			r.Mount("/appointments", NewAppointmentHandler(svc.Appointments).Routes())
			r.Mount("/passes", NewPassHandler(svc.Passes).Routes())
			r.Mount("/checklogs", NewCheckLogHandler(svc.CheckLogs).Routes())
			r.With(middleware.Require(middleware.AnyRole(domain.RoleAdmin, domain.RoleSecurity))).
				Mount("/analytics", NewAnalyticsHandler(svc.Analytics).Routes())
			r.With(admin).Mount("/organizations", NewOrganizationHandler(svc.Organizations).Routes())
			r.With(admin).Mount("/users", NewUserHandler(svc.Users).Routes())
		})
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Config.Upload.Dir))))
	return r
}
