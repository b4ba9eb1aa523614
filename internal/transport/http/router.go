// Package httptransport is the thin HTTP layer over the lifecycle service
// and the stores. Handlers decode, delegate, and encode; every rule about
// who may do what lives in the domain services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paygate/internal/domain"
	"paygate/internal/platform/middleware"
	"paygate/internal/storage"
)

// Deps carries everything the router wires together.
type Deps struct {
	Auth      AuthService
	Validator middleware.TokenValidator
	Lifecycle LifecycleService
	Requests  storage.RequestStore
	Projects  storage.ProjectStore
	Audit     storage.AuditStore
	Recorder  AuditAppender
	Logger    *slog.Logger
}

// NewRouter wires all endpoints. Login, health, and metrics are public;
// everything under /api requires a bearer token.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authH := &AuthHandler{auth: deps.Auth}
	reqH := &RequestHandler{lifecycle: deps.Lifecycle, requests: deps.Requests}
	projH := &ProjectHandler{lifecycle: deps.Lifecycle, projects: deps.Projects}
	auditH := &AuditHandler{audit: deps.Audit, recorder: deps.Recorder}
	syncH := &SyncHandler{requests: deps.Requests, projects: deps.Projects, audit: deps.Audit}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/api/login", authH.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, logger))

		r.Get("/api/sync", syncH.handleFullState)

		r.Get("/api/requests", reqH.handleList)
		r.Post("/api/requests", reqH.handleSubmit)
		r.Get("/api/requests/{id}", reqH.handleGet)
		r.Patch("/api/requests/{id}", reqH.handlePatch)
		r.With(middleware.RequireRole(domain.RoleAdmin)).
			Delete("/api/requests/{id}", reqH.handleErase)

		r.Get("/api/projects", projH.handleList)
		r.With(middleware.RequireRole(domain.RoleAdmin)).
			Post("/api/projects", projH.handleCreate)

		r.Get("/api/audit", auditH.handleList)
		r.Post("/api/audit", auditH.handleAppend)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
