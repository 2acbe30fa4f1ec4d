package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// TokenHeader mirrors the access token issued by login and refresh.
const TokenHeader = "X-DT-Token"

// CORS returns middleware that applies the configured allowed origin policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{TokenHeader, "Content-Language"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
