// Package rest exposes the Google Workspace clients over HTTP. The
// gateway is thin glue: handlers decode the request, call a client,
// and encode the result, with domain errors translated to statuses.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/gsuite-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/calendar"
	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/drive"
	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/gmail"
	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/sheets"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// shutdownTimeout bounds graceful shutdown on context cancellation.
const shutdownTimeout = 10 * time.Second

// Clients bundles the service clients the gateway routes to. Nil
// clients leave their routes unmounted.
type Clients struct {
	Gmail    *gmail.Client
	Calendar *calendar.Client
	Drive    *drive.Client
	Sheets   *sheets.Client
}

// Server is the REST gateway.
type Server struct {
	settings *config.Settings
	provider driven.TokenProvider
	clients  Clients
	metrics  *metrics
	router   chi.Router
}

// NewServer builds the gateway with its routes mounted.
func NewServer(settings *config.Settings, provider driven.TokenProvider, clients Clients) *Server {
	s := &Server{
		settings: settings,
		provider: provider,
		clients:  clients,
		metrics:  newMetrics(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestLogger)
	r.Use(s.metrics.middleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Group(func(r chi.Router) {
		r.Use(apiKeyGate(s.settings.APIKey))

		r.Get("/auth/status", s.handleAuthStatus)

		r.Group(func(r chi.Router) {
			r.Use(authGate(s.provider))

			if s.clients.Gmail != nil {
				r.Route("/gmail", s.gmailRoutes)
			}
			if s.clients.Calendar != nil {
				r.Route("/calendar", s.calendarRoutes)
			}
			if s.clients.Drive != nil {
				r.Route("/drive", s.driveRoutes)
			}
			if s.clients.Sheets != nil {
				r.Route("/sheets", s.sheetsRoutes)
			}
		})
	})

	return r
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("gateway listening on %s", s.settings.Addr())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.settings.Version,
	})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]bool{
		"authenticated": s.provider.IsAuthenticated(r.Context()),
	})
}
