// Package httpapi wires the HTTP surface of the tally service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"context"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"log/slog"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/service/auth"
	"github.com/tallyhq/tally/internal/service/ledgersvc"
)

// Adviser produces spending advice from a user's entries and animates
// uploaded images into short videos. It is optional; a nil Adviser turns the
// advice and animate endpoints into a 503.
type Adviser interface {
	Advise(ctx context.Context, username string, entries []ledger.Entry) (string, error)
	AnimateImage(ctx context.Context, prompt, imageBase64, mimeType string) (string, error)
}

// Server wires handlers and middleware using Chi.
// It composes read (repo) and write (writer) dependencies through services.
type Server struct {
	auth         auth.Service
	ledger       ledgersvc.Service
	users        auth.Repo
	adviser      Adviser
	store        any
	baseCurrency string
	log          *slog.Logger
	rt           *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
// adviser may be nil when no advice backend is configured; store is consulted
// by the readiness probe when it exposes Ready(context.Context) error.
func New(arepo auth.Repo, awriter auth.Writer, sessions auth.SessionStore, lrepo ledgersvc.Repo, lwriter ledgersvc.Writer, adviser Adviser, store any, baseCurrency string, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		auth:         auth.New(arepo, awriter, sessions),
		ledger:       ledgersvc.New(lrepo, lwriter, baseCurrency),
		users:        arepo,
		adviser:      adviser,
		store:        store,
		baseCurrency: baseCurrency,
		rt:           r,
		log:          logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Auth (v1)
	s.rt.With(s.validateCredentials()).Post("/v1/auth/register", s.register)
	s.rt.With(s.validateCredentials()).Post("/v1/auth/login", s.login)
	s.rt.Post("/v1/auth/logout", s.logout)
	s.rt.Get("/v1/auth/session", s.session)
	// Entries (v1)
	s.rt.With(s.validatePostEntry()).Post("/v1/entries", s.postEntry)
	s.rt.With(s.validateListEntries()).Get("/v1/entries", s.listEntries)
	s.rt.Delete("/v1/entries/{id}", s.deleteEntry)
	s.rt.With(s.validateSummary()).Get("/v1/summary", s.getSummary)
	// Advice (v1)
	s.rt.Post("/v1/advice", s.postAdvice)
	s.rt.Post("/v1/animate", s.postAnimate)
	// Dictionary (v1)
	s.rt.Get("/v1/categories", s.getCategories)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Get("/metrics", metricsHandler().ServeHTTP)
}
