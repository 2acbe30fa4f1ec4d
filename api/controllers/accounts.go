package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/devtail-backend/api/middleware"
	"github.com/angelmondragon/devtail-backend/api/responses"
	"github.com/angelmondragon/devtail-backend/api/validators"
	"github.com/angelmondragon/devtail-backend/internal/accounts"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
)

// ConfirmedNotice is appended to the login URL after a successful confirmation.
const ConfirmedNotice = "email_confirmed"

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type resetLinkStatus struct {
	Valid bool `json:"valid"`
}

func accountsUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable")
}

func imageUpload(upload *validators.Upload) *accounts.ImageUpload {
	if upload == nil {
		return nil
	}
	return &accounts.ImageUpload{Filename: upload.Filename, Data: upload.Data}
}

// AccountsRegister accepts the multipart signup form and mails the
// confirmation link.
func AccountsRegister(svc accounts.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		form, err := validators.ParseForm(r, maxUpload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		upload, err := form.File("profile_image", maxUpload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req := accounts.RegisterRequest{
			Email:            form.Value("email"),
			Password1:        form.Value("password1"),
			Password2:        form.Value("password2"),
			Nickname:         form.Value("nickname"),
			DevelopmentField: form.Value("development_field"),
			Content:          form.Optional("content"),
			ProfileImage:     imageUpload(upload),
		}
		if err := svc.Register(r.Context(), req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(r.Context(), w, http.StatusCreated, accounts.MsgRegisterSent)
	}
}

// AccountsConfirm activates the account behind a mailed token. Browsers are
// sent to the login page; JSON clients get a notice.
func AccountsConfirm(svc accounts.Service, loginURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		if err := svc.ConfirmEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if strings.Contains(r.Header.Get("Accept"), "application/json") {
			responses.WriteMessage(r.Context(), w, http.StatusOK, accounts.MsgConfirmDone)
			return
		}
		http.Redirect(w, r, withNotice(loginURL, ConfirmedNotice), http.StatusFound)
	}
}

func withNotice(target, notice string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("notice", notice)
	u.RawQuery = q.Encode()
	return u.String()
}

// AccountsResendConfirmation mails a new confirmation link to a pending account.
func AccountsResendConfirmation(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		var body emailRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ResendConfirmation(r.Context(), body.Email); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(r.Context(), w, http.StatusOK, accounts.MsgConfirmResent)
	}
}

// AccountsLogin wires the login endpoint into the HTTP layer.
func AccountsLogin(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		var body accounts.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Next == "" {
			body.Next = r.URL.Query().Get("next")
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(middleware.TokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AccountsProfile shows a user's profile to any logged in caller.
func AccountsProfile(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		userID, err := validators.ParseIDParam(r, "userID", accounts.MsgUserNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.GetProfile(r.Context(), middleware.CallerFromContext(r.Context()), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// AccountsUpdateProfile applies the multipart profile form to the caller.
func AccountsUpdateProfile(svc accounts.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		form, err := validators.ParseForm(r, maxUpload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		upload, err := form.File("profile_image", maxUpload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req := accounts.UpdateProfileRequest{
			Nickname:         form.Value("nickname"),
			DevelopmentField: form.Value("development_field"),
			Content:          form.Optional("content"),
			ProfileImage:     imageUpload(upload),
		}
		profile, err := svc.UpdateProfile(r.Context(), middleware.CallerFromContext(r.Context()), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// AccountsChangePassword replaces the caller's password and returns the new
// session for the current client.
func AccountsChangePassword(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		var body accounts.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pair, err := svc.ChangePassword(r.Context(), middleware.CallerFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(middleware.TokenHeader, pair.AccessToken)
		responses.WriteSuccess(w, pair)
	}
}

// AccountsDelete removes the caller after the password is re-entered.
func AccountsDelete(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		var body passwordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteAccount(r.Context(), middleware.CallerFromContext(r.Context()), body.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(r.Context(), w, http.StatusOK, accounts.MsgDeleteDone)
	}
}

// AccountsRequestPasswordReset mails a reset link.
func AccountsRequestPasswordReset(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		var body emailRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RequestPasswordReset(r.Context(), body.Email); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(r.Context(), w, http.StatusOK, accounts.MsgResetSent)
	}
}

// AccountsCheckResetLink lets the client validate a link before showing the
// new password form.
func AccountsCheckResetLink(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		if err := svc.CheckResetLink(r.Context(), chi.URLParam(r, "uidb64"), chi.URLParam(r, "token")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resetLinkStatus{Valid: true})
	}
}

// AccountsResetPassword sets a new password through a mailed link.
func AccountsResetPassword(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, accountsUnavailable())
			return
		}

		var body accounts.ResetPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.UIDB64 = chi.URLParam(r, "uidb64")
		body.Token = chi.URLParam(r, "token")

		if err := svc.ResetPassword(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(r.Context(), w, http.StatusOK, accounts.MsgResetDone)
	}
}
