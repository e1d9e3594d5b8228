// Package server exposes the storefront catalog pages over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"catalog/storefront/internal/assets"
	"catalog/storefront/internal/client"
	"catalog/storefront/internal/repository"
	"catalog/storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

type Options struct {
	Client        client.CatalogClient
	Assets        assets.Store
	Sessions      *session.Manager
	Outcomes      repository.OutcomeRepository
	CookieName    string
	Language      string
	RenderTimeout time.Duration
}

type Server struct {
	client        client.CatalogClient
	assets        assets.Store
	sessions      *session.Manager
	outcomes      repository.OutcomeRepository
	cookieName    string
	language      string
	renderTimeout time.Duration
	templates     *template.Template
}

func New(opts Options) (*Server, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	outcomes := opts.Outcomes
	if outcomes == nil {
		outcomes = repository.NewNopRepository()
	}

	return &Server{
		client:        opts.Client,
		assets:        opts.Assets,
		sessions:      opts.Sessions,
		outcomes:      outcomes,
		cookieName:    opts.CookieName,
		language:      opts.Language,
		renderTimeout: opts.RenderTimeout,
		templates:     templates,
	}, nil
}

// Handler returns the router with every storefront route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleHome)
	r.Get("/category/{categoryId}", s.handlePage)
	r.Get("/category/{categoryId}/{subCategoryId}", s.handlePage)
	r.Post("/sidebar/{categoryId}/toggle", s.handleToggle)
	r.Post("/viewport", s.handleViewport)
	r.Get("/assets/{ref}", s.handleAsset)
	r.Get("/products/{fileId}/thumbnail", s.handleThumbnail)

	return r
}

// ListenAndServe serves until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🌐 Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
