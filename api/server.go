/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack and the route table.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RealIP:        Client address behind proxies
  3. RequestLogger: slog line per request, level by status
  4. Recoverer:     Panic recovery (500 instead of crash)
  5. CORS:          Cross-origin requests for the dashboard

ROUTES (all tenant scoped):
  /api/solar/{tenant}/project             GET POST PUT DELETE
  /api/solar/{tenant}/project-phase       POST
  /api/solar/{tenant}/equipment           GET PUT
  /api/solar/{tenant}/production          GET POST
  /api/solar/{tenant}/metrics             GET
  /api/solar/{tenant}/bi                  GET ?period=
  /api/solar/{tenant}/distribution        GET POST
  /api/solar/{tenant}/distribution/{id}   PATCH
  /api/solar/{tenant}/utility-comparison  GET ?state=
  /healthz
  /api/scenarios, /api/scenarios/load     demo mode only

SECURITY NOTE:
  No authentication middleware. Tenant identity comes from the path and is
  only checked against the unit directory.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins is used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Healthz)

	if h.Demo != nil {
		r.Route("/api/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	}

	r.Route("/api/solar/{tenant}", func(r chi.Router) {
		r.Route("/project", func(r chi.Router) {
			r.Get("/", h.GetProject)
			r.Post("/", h.CreateProject)
			r.Put("/", h.UpdateProject)
			r.Delete("/", h.DeleteProject)
		})
		r.Post("/project-phase", h.TransitionPhase)

		r.Get("/equipment", h.GetEquipment)
		r.Put("/equipment", h.UpdateEquipment)

		r.Get("/production", h.ListProduction)
		r.Post("/production", h.RecordProduction)

		r.Get("/metrics", h.GetMetrics)
		r.Get("/bi", h.GetBI)
		r.Get("/utility-comparison", h.GetUtilityComparison)

		r.Route("/distribution", func(r chi.Router) {
			r.Get("/", h.ListDistribution)
			r.Post("/", h.CreateDistribution)
			r.Patch("/{id}", h.UpdateDistribution)
		})
	})

	return r
}

// RequestLogger logs one line per request, at warn for 4xx and error for 5xx.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"status", status,
				"method", r.Method,
				"path", r.URL.Path,
				"latency_ms", time.Since(start).Milliseconds(),
				"bytes", ww.BytesWritten(),
				"client_ip", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}

			switch {
			case status >= 500:
				log.Error("request completed", attrs...)
			case status >= 400:
				log.Warn("request completed", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}
