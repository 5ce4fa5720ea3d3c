package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"chatscript-bridge/internal/handlers"
	"chatscript-bridge/internal/metrics"
	"chatscript-bridge/internal/middleware"
)

func New(
	chatHandler *handlers.ChatHandler,
	m *metrics.Metrics,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger, m))
	r.Use(chimiddleware.Recoverer)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.NotFound)

	r.Post("/chat", chatHandler.Chat)

	return r
}
