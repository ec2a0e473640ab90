package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// NewCORSMiddleware builds the CORS handler for the optional diagnostics
// mux (cmd/adminquery). The broker's own calls to /user, /vhost,
// /resource, /topic never go through a browser and need no CORS handling;
// this exists solely for the debug mux. Only GET and OPTIONS are allowed
// cross-origin, so a browser page on another origin can reach GET /health
// but not the POST /debug/... endpoints.
func NewCORSMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
