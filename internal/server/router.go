package server

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/docrag/internal/api"
	"github.com/cloo-solutions/docrag/internal/api/handlers"
	"github.com/cloo-solutions/docrag/internal/api/middleware"
	"github.com/cloo-solutions/docrag/internal/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxBodyBytes   int64 = 5 * 1024 * 1024
	maxUploadBytes int64 = 50 * 1024 * 1024
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Logger          *zap.Logger
	Health          HealthChecker
	DocumentHandler *handlers.DocumentHandler
	RAGHandler      *handlers.RAGHandler
	PageHandler     *handlers.PageHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health.Ping(r.Context()); err != nil {
				api.Error(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	limited := middleware.MaxBodyBytes(maxBodyBytes)
	uploads := middleware.MaxBodyBytes(maxUploadBytes)

	r.Route("/documents", func(r chi.Router) {
		r.With(uploads).Post("/", cfg.DocumentHandler.Upload)

		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
			r.Get("/{id}/text", cfg.DocumentHandler.Text)
			r.Get("/{id}/source", cfg.DocumentHandler.Source)
			r.Get("/{id}/similar", cfg.DocumentHandler.Similar)
			r.Post("/{id}/summary", cfg.RAGHandler.Summary)
			r.Post("/{id}/takeaways", cfg.RAGHandler.Takeaways)
			r.Post("/{id}/explain", cfg.RAGHandler.Explain)
		})
	})

	r.With(limited).Post("/retrieve", cfg.RAGHandler.Retrieve)
	r.With(limited).Post("/chat", cfg.RAGHandler.Chat)

	r.Route("/pages", func(r chi.Router) {
		r.With(uploads).Post("/import", cfg.PageHandler.Import)

		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/", cfg.PageHandler.Upsert)
			r.Post("/search", cfg.PageHandler.Search)
			r.Get("/{id}", cfg.PageHandler.Get)
		})
	})

	return r
}
