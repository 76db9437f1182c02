package server

import (
	"log/slog"
	"net/http"
	"time"

	"hr-attendance-backend/internal/config"
	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	Health     handler.HealthHandler
	Auth       handler.AuthHandler
	Attendance handler.AttendanceHandler
	Calendar   handler.CalendarHandler
	Employees  handler.EmployeeHandler
	Docs       handler.DocsHandler
}

// NewRouter wires HTTP routes and middleware. gatherer backs /metrics.
func NewRouter(cfg config.Config, logger *slog.Logger, gatherer prometheus.Gatherer, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = 200
	}
	r.Use(httprate.LimitByIP(limit, 1*time.Minute))

	h.Health.RegisterRoutes(r)
	h.Auth.RegisterRoutes(r)
	h.Docs.RegisterRoutes(r)
	if gatherer != nil {
		r.Method("GET", "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		h.Auth.RegisterProtectedRoutes(pr)
		// employees and admins
		pr.Group(func(er chi.Router) {
			er.Use(RequireRole(domain.RoleEmployee, domain.RoleAdmin))
			h.Attendance.RegisterRoutes(er)
		})
		// admin only
		pr.Group(func(ar chi.Router) {
			ar.Use(RequireRole(domain.RoleAdmin))
			h.Attendance.RegisterAdminRoutes(ar)
			h.Calendar.RegisterRoutes(ar)
			h.Employees.RegisterRoutes(ar)
		})
	})

	return r
}
