package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
)

type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// NewRouter mounts the handlers behind the recovery and logging middleware.
func NewRouter(lgr logger.Logger, handlers ...RouteRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Use(RecoveryMiddleware(lgr))
	r.Use(LoggingMiddleware(lgr))

	for _, h := range handlers {
		h.RegisterRoutes(r)
	}
	return r
}
