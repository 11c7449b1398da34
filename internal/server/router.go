package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petal-labs/ira/internal/api"
	"github.com/petal-labs/ira/internal/api/handlers"
	"github.com/petal-labs/ira/internal/api/middleware"
)

type RouterConfig struct {
	SessionHandler  *handlers.SessionHandler
	DocumentHandler *handlers.DocumentHandler
	AskHandler      *handlers.AskHandler
	MaxBodyBytes    int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/sessions", cfg.SessionHandler.Create)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Post("/document", cfg.DocumentHandler.Upload)
		r.Post("/ask", cfg.AskHandler.Ask)
	})

	return r
}
