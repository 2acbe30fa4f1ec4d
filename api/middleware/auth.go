package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/devtail-backend/api/responses"
	pkgAuth "github.com/angelmondragon/devtail-backend/pkg/auth"
	"github.com/angelmondragon/devtail-backend/pkg/auth/session"
	"github.com/angelmondragon/devtail-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
)

const msgUnauthenticated = "auth.unauthenticated"

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// Auth validates a bearer token and seeds the request context with the caller.
// Every failure is reported with the same unauthenticated message.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgUnauthenticated))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msgUnauthenticated))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgUnauthenticated))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgUnauthenticated))
					return
				}
			}

			ctx := WithCaller(r.Context(), pkgAuth.Caller{UserID: claims.UserID, SessionID: claims.ID})
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID)
				ctx = logg.WithSessionID(ctx, claims.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
