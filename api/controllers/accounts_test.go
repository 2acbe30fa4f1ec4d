package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/devtail-backend/internal/accounts"
	"github.com/angelmondragon/devtail-backend/internal/users"
	"github.com/angelmondragon/devtail-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
)

type testAccountsService struct {
	registerFn      func(ctx context.Context, req accounts.RegisterRequest) error
	confirmFn       func(ctx context.Context, token string) error
	loginFn         func(ctx context.Context, req accounts.LoginRequest) (*accounts.LoginResult, error)
	profileFn       func(ctx context.Context, caller auth.Caller, userID uint64) (*users.UserDTO, error)
	updateFn        func(ctx context.Context, caller auth.Caller, req accounts.UpdateProfileRequest) (*users.UserDTO, error)
	deleteFn        func(ctx context.Context, caller auth.Caller, password string) error
	checkResetFn    func(ctx context.Context, uidb64, token string) error
	resetPasswordFn func(ctx context.Context, req accounts.ResetPasswordRequest) error
}

func (s *testAccountsService) Register(ctx context.Context, req accounts.RegisterRequest) error {
	if s.registerFn != nil {
		return s.registerFn(ctx, req)
	}
	return nil
}

func (s *testAccountsService) ConfirmEmail(ctx context.Context, token string) error {
	if s.confirmFn != nil {
		return s.confirmFn(ctx, token)
	}
	return nil
}

func (s *testAccountsService) ResendConfirmation(ctx context.Context, email string) error {
	return nil
}

func (s *testAccountsService) Login(ctx context.Context, req accounts.LoginRequest) (*accounts.LoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, req)
	}
	return &accounts.LoginResult{}, nil
}

func (s *testAccountsService) GetProfile(ctx context.Context, caller auth.Caller, userID uint64) (*users.UserDTO, error) {
	if s.profileFn != nil {
		return s.profileFn(ctx, caller, userID)
	}
	return &users.UserDTO{ID: userID}, nil
}

func (s *testAccountsService) UpdateProfile(ctx context.Context, caller auth.Caller, req accounts.UpdateProfileRequest) (*users.UserDTO, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, caller, req)
	}
	return &users.UserDTO{ID: caller.UserID}, nil
}

func (s *testAccountsService) ChangePassword(ctx context.Context, caller auth.Caller, req accounts.ChangePasswordRequest) (*accounts.TokenPair, error) {
	return &accounts.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *testAccountsService) DeleteAccount(ctx context.Context, caller auth.Caller, password string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, caller, password)
	}
	return nil
}

func (s *testAccountsService) RequestPasswordReset(ctx context.Context, email string) error {
	return nil
}

func (s *testAccountsService) CheckResetLink(ctx context.Context, uidb64, token string) error {
	if s.checkResetFn != nil {
		return s.checkResetFn(ctx, uidb64, token)
	}
	return nil
}

func (s *testAccountsService) ResetPassword(ctx context.Context, req accounts.ResetPasswordRequest) error {
	if s.resetPasswordFn != nil {
		return s.resetPasswordFn(ctx, req)
	}
	return nil
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		part, err := mw.CreateFormFile("profile_image", "me.png")
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAccountsRegisterParsesMultipart(t *testing.T) {
	var captured accounts.RegisterRequest
	svc := &testAccountsService{
		registerFn: func(ctx context.Context, req accounts.RegisterRequest) error {
			captured = req
			return nil
		},
	}

	req := multipartRequest(t, http.MethodPost, "/api/v1/accounts/register", map[string]string{
		"email":             "dev@example.com",
		"password1":         "abcd!234",
		"password2":         "abcd!234",
		"nickname":          "devkim",
		"development_field": "backend",
	}, []byte("image-bytes"))
	resp := httptest.NewRecorder()
	AccountsRegister(svc, 1<<20, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Email != "dev@example.com" || captured.Nickname != "devkim" || captured.DevelopmentField != "backend" {
		t.Fatalf("unexpected request %+v", captured)
	}
	if captured.Password1 != "abcd!234" || captured.Password2 != "abcd!234" {
		t.Fatal("expected passwords to be forwarded")
	}
	if captured.Content != nil {
		t.Fatalf("expected absent content to stay nil, got %q", *captured.Content)
	}
	if captured.ProfileImage == nil || string(captured.ProfileImage.Data) != "image-bytes" || captured.ProfileImage.Filename != "me.png" {
		t.Fatalf("unexpected image %+v", captured.ProfileImage)
	}
}

func TestAccountsRegisterTruncatesOversizedImage(t *testing.T) {
	var size int
	svc := &testAccountsService{
		registerFn: func(ctx context.Context, req accounts.RegisterRequest) error {
			size = len(req.ProfileImage.Data)
			return nil
		},
	}
	req := multipartRequest(t, http.MethodPost, "/api/v1/accounts/register", map[string]string{"email": "a@b.co"}, bytes.Repeat([]byte{1}, 64))
	resp := httptest.NewRecorder()
	AccountsRegister(svc, 16, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if size != 17 {
		t.Fatalf("expected limit+1 bytes to reach the service, got %d", size)
	}
}

func TestAccountsRegisterReportsFieldErrors(t *testing.T) {
	svc := &testAccountsService{
		registerFn: func(ctx context.Context, req accounts.RegisterRequest) error {
			return pkgerrors.New(pkgerrors.CodeValidation, accounts.MsgNicknameDuplicate).
				WithDetails(map[string]string{"nickname": accounts.MsgNicknameDuplicate})
		},
	}
	req := multipartRequest(t, http.MethodPost, "/api/v1/accounts/register", map[string]string{"nickname": "taken"}, nil)
	resp := httptest.NewRecorder()
	AccountsRegister(svc, 1<<20, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Details["nickname"] == "" {
		t.Fatalf("expected nickname detail, got %v", envelope.Error.Details)
	}
}

func TestAccountsConfirmRedirectsToLogin(t *testing.T) {
	var token string
	svc := &testAccountsService{
		confirmFn: func(ctx context.Context, got string) error {
			token = got
			return nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/confirm/abc", nil)
	req = addRouteParams(req, map[string]string{"token": "abc"})
	resp := httptest.NewRecorder()
	AccountsConfirm(svc, "/accounts/login", testLogger())(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302 got %d", resp.Code)
	}
	if token != "abc" {
		t.Fatalf("unexpected token %q", token)
	}
	if got := resp.Header().Get("Location"); got != "/accounts/login?notice=email_confirmed" {
		t.Fatalf("unexpected location %q", got)
	}
}

func TestAccountsConfirmAnswersJSONClients(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/confirm/abc", nil)
	req.Header.Set("Accept", "application/json")
	req = addRouteParams(req, map[string]string{"token": "abc"})
	resp := httptest.NewRecorder()
	AccountsConfirm(&testAccountsService{}, "/accounts/login", testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAccountsConfirmUnknownToken(t *testing.T) {
	svc := &testAccountsService{
		confirmFn: func(ctx context.Context, token string) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, accounts.MsgInvalidToken)
		},
	}
	req := addRouteParams(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/confirm/nope", nil), map[string]string{"token": "nope"})
	resp := httptest.NewRecorder()
	AccountsConfirm(svc, "/accounts/login", testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAccountsLoginSetsTokenHeader(t *testing.T) {
	var captured accounts.LoginRequest
	svc := &testAccountsService{
		loginFn: func(ctx context.Context, req accounts.LoginRequest) (*accounts.LoginResult, error) {
			captured = req
			return &accounts.LoginResult{
				TokenPair:  accounts.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
				RedirectTo: "/posts",
			}, nil
		},
	}
	body := `{"email":"dev@example.com","password":"abcd!234"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/login?next=/posts", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AccountsLogin(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.Next != "/posts" {
		t.Fatalf("expected next from query, got %q", captured.Next)
	}
	if resp.Header().Get("X-DT-Token") != "access" {
		t.Fatalf("expected token header, got %q", resp.Header().Get("X-DT-Token"))
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["refresh_token"] != "refresh" || envelope.Data["redirect_to"] != "/posts" {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}

func TestAccountsLoginRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/login", strings.NewReader(`{"username":"x"}`))
	resp := httptest.NewRecorder()
	AccountsLogin(&testAccountsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAccountsProfilePassesCaller(t *testing.T) {
	svc := &testAccountsService{
		profileFn: func(ctx context.Context, caller auth.Caller, userID uint64) (*users.UserDTO, error) {
			if caller.UserID != 3 || userID != 12 {
				t.Fatalf("unexpected caller %d / user %d", caller.UserID, userID)
			}
			return &users.UserDTO{ID: 12, Nickname: "other"}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/profile/12", nil)
	req = addRouteParams(withCaller(req, 3), map[string]string{"userID": "12"})
	resp := httptest.NewRecorder()
	AccountsProfile(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAccountsProfileInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/profile/abc", nil)
	req = addRouteParams(withCaller(req, 3), map[string]string{"userID": "abc"})
	resp := httptest.NewRecorder()
	AccountsProfile(&testAccountsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAccountsUpdateProfileKeepsImageWhenAbsent(t *testing.T) {
	var captured accounts.UpdateProfileRequest
	svc := &testAccountsService{
		updateFn: func(ctx context.Context, caller auth.Caller, req accounts.UpdateProfileRequest) (*users.UserDTO, error) {
			captured = req
			return &users.UserDTO{ID: caller.UserID, Nickname: req.Nickname}, nil
		},
	}
	req := multipartRequest(t, http.MethodPut, "/api/v1/accounts/profile", map[string]string{
		"nickname":          "renamed",
		"development_field": "frontend",
		"content":           "",
	}, nil)
	resp := httptest.NewRecorder()
	AccountsUpdateProfile(svc, 1<<20, testLogger())(resp, withCaller(req, 3))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.ProfileImage != nil {
		t.Fatal("expected no image")
	}
	if captured.Content == nil || *captured.Content != "" {
		t.Fatalf("expected empty content to be forwarded, got %v", captured.Content)
	}
}

func TestAccountsDeleteWrongPassword(t *testing.T) {
	svc := &testAccountsService{
		deleteFn: func(ctx context.Context, caller auth.Caller, password string) error {
			if password != "wrong" {
				t.Fatalf("unexpected password %q", password)
			}
			return pkgerrors.New(pkgerrors.CodeValidation, accounts.MsgPasswordMismatch).
				WithDetails(map[string]string{"password": accounts.MsgPasswordMismatch})
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/delete", strings.NewReader(`{"password":"wrong"}`))
	resp := httptest.NewRecorder()
	AccountsDelete(svc, testLogger())(resp, withCaller(req, 3))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAccountsResetPasswordUsesPathParams(t *testing.T) {
	var captured accounts.ResetPasswordRequest
	svc := &testAccountsService{
		resetPasswordFn: func(ctx context.Context, req accounts.ResetPasswordRequest) error {
			captured = req
			return nil
		},
	}
	body := `{"new_password1":"abcd!234","new_password2":"abcd!234"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/password/reset/MQ/tok", strings.NewReader(body))
	req = addRouteParams(req, map[string]string{"uidb64": "MQ", "token": "tok"})
	resp := httptest.NewRecorder()
	AccountsResetPassword(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.UIDB64 != "MQ" || captured.Token != "tok" || captured.NewPassword1 != "abcd!234" {
		t.Fatalf("unexpected request %+v", captured)
	}
}

func TestAccountsCheckResetLinkInvalid(t *testing.T) {
	svc := &testAccountsService{
		checkResetFn: func(ctx context.Context, uidb64, token string) error {
			return pkgerrors.New(pkgerrors.CodeValidation, accounts.MsgResetInvalidLink)
		},
	}
	req := addRouteParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"uidb64": "x", "token": "y"})
	resp := httptest.NewRecorder()
	AccountsCheckResetLink(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
