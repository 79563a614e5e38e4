// Package httpapi exposes assignments, tenancy and organization credentials
// over HTTP. Every mutating route is authorized through authz.Resolver.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"teamhub.app/internal/auth"
	"teamhub.app/internal/authz"
	"teamhub.app/internal/obs"
	"teamhub.app/internal/secrets"
	"teamhub.app/internal/tenancy"
)

// ReadyProbe reports whether backing storage is reachable.
type ReadyProbe interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API is built on. ReadyProbe may be nil.
type Deps struct {
	Tokens   *auth.Tokens
	Resolver *authz.Resolver
	Grants   *authz.Grants
	Tenancy  *tenancy.Service
	Vault    *secrets.Vault
	Ready    ReadyProbe
}

// Options tune the HTTP surface.
type Options struct {
	Version        string
	CORSOrigins    []string
	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
}

type API struct {
	router   chi.Router
	tokens   *auth.Tokens
	resolver *authz.Resolver
	grants   *authz.Grants
	tenancy  *tenancy.Service
	vault    *secrets.Vault
	ready    ReadyProbe
	opts     Options
}

func New(deps Deps, opts Options) (*API, error) {
	switch {
	case deps.Tokens == nil:
		return nil, errors.New("httpapi: token verifier is required")
	case deps.Resolver == nil:
		return nil, errors.New("httpapi: resolver is required")
	case deps.Grants == nil:
		return nil, errors.New("httpapi: grants service is required")
	case deps.Tenancy == nil:
		return nil, errors.New("httpapi: tenancy service is required")
	case deps.Vault == nil:
		return nil, errors.New("httpapi: vault is required")
	}
	a := &API{
		tokens:   deps.Tokens,
		resolver: deps.Resolver,
		grants:   deps.Grants,
		tenancy:  deps.Tenancy,
		vault:    deps.Vault,
		ready:    deps.Ready,
		opts:     opts,
	}
	a.router = a.routes()
	return a, nil
}

func (a *API) Handler() http.Handler { return a.router }

func (a *API) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(LoggingJSON)
	r.Use(obs.Instrument)
	r.Use(SecurityHeaders)
	r.Use(corsHandler(a.opts.CORSOrigins))
	r.Use(MaxBodyBytes(a.opts.MaxBodyBytes))

	r.Get("/healthz", a.healthz)
	r.Get("/readyz", a.readyz)
	r.Handle("/metrics", obs.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		if a.opts.RateLimitRPS > 0 {
			v1.Use(func(next http.Handler) http.Handler {
				return RateLimit(next, a.opts.RateLimitBurst, a.opts.RateLimitRPS)
			})
		}
		v1.Use(a.withAuth)

		v1.Get("/me/assignments", a.handleMyAssignments)
		v1.Post("/authorize", a.handleAuthorize)

		v1.Post("/organizations", a.handleCreateOrganization)
		v1.Route("/organizations/{orgID}", func(org chi.Router) {
			org.Get("/", a.handleGetOrganization)
			org.Get("/teams", a.handleListTeams)
			org.Post("/teams", a.handleCreateTeam)
			org.Get("/credentials", a.handleListCredentials)
			org.Put("/credentials/{name}", a.handlePutCredential)
			org.Delete("/credentials/{name}", a.handleDeleteCredential)
		})

		v1.Post("/assignments", a.handleGrant)
		v1.Delete("/assignments/{id}", a.handleRevoke)
		v1.Patch("/assignments/{id}", a.handleSetActive)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "teamhub-api",
		"version": a.opts.Version,
	})
}

func (a *API) readyz(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.ready.Ping(ctx); err != nil {
			obs.Warn("readiness check failed", map[string]any{"error": err.Error()})
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
