package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/devtail-backend/api/middleware"
	"github.com/angelmondragon/devtail-backend/api/responses"
	"github.com/angelmondragon/devtail-backend/api/validators"
	"github.com/angelmondragon/devtail-backend/internal/alerts"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
	"github.com/angelmondragon/devtail-backend/pkg/pagination"
)

func alertsUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "alerts service unavailable")
}

// ListAlerts returns the caller's alerts, newest first.
func ListAlerts(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, alertsUnavailable())
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unreadOnly, err := validators.ParseQueryBool(r, "unread_only")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.List(r.Context(), alerts.ListParams{
			UserID:     middleware.CallerFromContext(r.Context()).UserID,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
			UnreadOnly: unreadOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// MarkAlertRead flags one of the caller's alerts as read.
func MarkAlertRead(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, alertsUnavailable())
			return
		}

		alertID, err := validators.ParseIDParam(r, "alertID", alerts.MsgNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), middleware.CallerFromContext(r.Context()).UserID, alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

// MarkAllAlertsRead flags every unread alert of the caller as read.
func MarkAllAlertsRead(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, alertsUnavailable())
			return
		}

		count, err := svc.MarkAllRead(r.Context(), middleware.CallerFromContext(r.Context()).UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}

// DeleteAlert removes one of the caller's alerts.
func DeleteAlert(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, alertsUnavailable())
			return
		}

		alertID, err := validators.ParseIDParam(r, "alertID", alerts.MsgNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.CallerFromContext(r.Context()).UserID, alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
