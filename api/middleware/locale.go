package middleware

import (
	"net/http"

	"github.com/angelmondragon/devtail-backend/pkg/locale"
)

// Locale negotiates the response language from Accept-Language and binds a
// localizer to the request context.
func Locale() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := locale.Match(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tag.String())
			ctx := locale.WithLocalizer(r.Context(), locale.NewLocalizer(tag))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
