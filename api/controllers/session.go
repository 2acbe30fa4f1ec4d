package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/devtail-backend/api/middleware"
	"github.com/angelmondragon/devtail-backend/api/responses"
	"github.com/angelmondragon/devtail-backend/api/validators"
	"github.com/angelmondragon/devtail-backend/internal/accounts"
	pkgAuth "github.com/angelmondragon/devtail-backend/pkg/auth"
	"github.com/angelmondragon/devtail-backend/pkg/auth/session"
	"github.com/angelmondragon/devtail-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, userID uint64, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, userID uint64, accessID string) error
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// bearerClaims parses the access token even when it has expired, so that a
// stale client can still log out or refresh.
func bearerClaims(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	token := middleware.BearerToken(r)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, accounts.MsgUnauthenticated)
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, accounts.MsgUnauthenticated)
	}
	if claims.ID == "" || claims.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, accounts.MsgUnauthenticated)
	}
	return claims, nil
}

// AuthLogout revokes the refresh mapping tied to the presented access token.
func AuthLogout(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		claims, err := bearerClaims(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := manager.Revoke(r.Context(), claims.UserID, claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session"))
			return
		}

		responses.WriteMessage(r.Context(), w, http.StatusOK, accounts.MsgLogoutDone)
	}
}

// AuthRefresh rotates the refresh token and issues a new access token.
func AuthRefresh(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := bearerClaims(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		newAccessID, newRefreshToken, err := manager.Rotate(r.Context(), claims.UserID, claims.ID, body.RefreshToken)
		if err != nil {
			if errors.Is(err, session.ErrInvalidRefreshToken) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, accounts.MsgUnauthenticated))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session"))
			return
		}

		accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID: claims.UserID,
			JTI:    newAccessID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt"))
			return
		}

		w.Header().Set(middleware.TokenHeader, accessToken)
		responses.WriteSuccess(w, accounts.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
		})
	}
}
