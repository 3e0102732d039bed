// internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/termo/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts the HTTP API and the game WebSocket. The socket is
// served at /ws and at the root, where browser clients connect by default.
func NewRouter(api *API, ws *WSServer, allowedOrigins []string, logger logrus.FieldLogger) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.LogMiddleware(logger))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/health", api.HealthHandler)
		r.Get("/words", api.WordsHandler)
		r.Get("/validate/{word}", api.ValidateHandler)
		r.Get("/random", api.RandomHandler)
		r.Get("/room/{code}", api.RoomHandler)
	})

	r.Handle("/ws", ws)
	r.Handle("/", ws)
	return r
}
