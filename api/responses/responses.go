package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/locale"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
	"github.com/angelmondragon/devtail-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteMessage acknowledges a request with a translated notice.
func WriteMessage(ctx context.Context, w http.ResponseWriter, status int, messageID string) {
	WriteSuccessStatus(w, status, types.Notice{Message: locale.Translate(ctx, messageID, nil)})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.FallbackMessage
	if m := typed.Message(); m != "" {
		// dependency failures only surface catalog messages
		if meta.ClientMessage || (typed.Code() == pkgerrors.CodeDependency && locale.Known(m)) {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: locale.Translate(ctx, msg, nil),
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = localizeDetails(ctx, details)
		}
	}

	if logg != nil {
		fields := pkgerrors.LogFields(err)
		ctx = logg.WithFields(ctx, fields)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

// localizeDetails translates field messages. Other detail shapes are passed
// through untouched.
func localizeDetails(ctx context.Context, details any) any {
	fields, ok := details.(map[string]string)
	if !ok {
		return details
	}
	out := make(map[string]string, len(fields))
	for field, messageID := range fields {
		out[field] = locale.Translate(ctx, messageID, nil)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
