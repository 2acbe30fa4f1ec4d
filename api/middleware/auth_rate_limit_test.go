package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
)

func TestAuthRateLimit_AllowsUnderLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 2)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"email":"tester@example.com"`) {
			t.Fatalf("unexpected body: %s", string(body))
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/login", strings.NewReader(`{"email":"tester@example.com","password":"secret"}`))
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRateLimit_EmailLimitTriggers(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/login", strings.NewReader(`{"email":"blocked@example.com","password":"secret"}`))
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("expected success before limit, got %d", rec.Code)
		case i >= 2:
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
				t.Fatalf("unexpected code: %s", payload.Error.Code)
			}
		}
	}
}

func TestAuthRateLimit_IPLimitTriggers(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("register", time.Minute, 1, 0)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/register", strings.NewReader(`{"email":"foo@example.com","password":"secret"}`))
		req.RemoteAddr = "5.6.7.8:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("expected success, got %d", rec.Code)
		}
		if i == 1 {
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			if rec.Header().Get("Retry-After") != "60" {
				t.Fatalf("expected Retry-After of one window, got %q", rec.Header().Get("Retry-After"))
			}
		}
	}
}

func TestAuthRateLimit_MultipartEmailCounts(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("register", time.Minute, 0, 1)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("body must stay readable: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		if err := mw.WriteField("nickname", "devkim"); err != nil {
			t.Fatalf("write field: %v", err)
		}
		if err := mw.WriteField("email", " Dev@Example.com "); err != nil {
			t.Fatalf("write field: %v", err)
		}
		if err := mw.Close(); err != nil {
			t.Fatalf("close writer: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/register", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.RemoteAddr = "9.9.9.9:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("expected success, got %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	}

	key := policy.key(scopeEmail, hashValue("dev@example.com"))
	if store.counts[key] != 2 {
		t.Fatalf("expected normalized email counter, got %v", store.counts)
	}
}

func TestExtractEmailIgnoresUnknownBodies(t *testing.T) {
	if got := extractEmail("text/plain", []byte("email=x@example.com")); got != "" {
		t.Fatalf("expected no email, got %q", got)
	}
	if got := extractEmail("multipart/form-data", []byte("--x\r\n")); got != "" {
		t.Fatalf("expected no email without boundary, got %q", got)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		forwarded, realIP, remote, want string
	}{
		{"203.0.113.7, 10.0.0.1", "", "10.0.0.2:80", "203.0.113.7"},
		{"not-an-ip", "198.51.100.4", "10.0.0.2:80", "198.51.100.4"},
		{"", "", "10.0.0.2:80", "10.0.0.2"},
		{"", "", "pipe", "pipe"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		if tc.realIP != "" {
			req.Header.Set("X-Real-IP", tc.realIP)
		}
		if got := clientIP(req); got != tc.want {
			t.Fatalf("clientIP(%+v) = %q, want %q", tc, got, tc.want)
		}
	}
}

func TestAuthRateLimitKeysByPolicyName(t *testing.T) {
	store := newFakeRateStore()
	login := NewAuthRateLimitPolicy(" Login ", time.Minute, 1, 0)
	mail := NewAuthRateLimitPolicy("mail", time.Minute, 1, 0)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	for _, policy := range []AuthRateLimitPolicy{login, mail} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "1.1.1.1:1"
		rec := httptest.NewRecorder()
		AuthRateLimit(policy, store, nil)(ok).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: budgets must not be shared, got %d", policy.name, rec.Code)
		}
	}
	if store.counts["login:ip:1.1.1.1"] != 1 || store.counts["mail:ip:1.1.1.1"] != 1 {
		t.Fatalf("unexpected keys %v", store.counts)
	}
}

func TestAuthRateLimit_RejectsOversizedBodyBeforeBuffering(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("register", time.Minute, 0, 5).WithMaxBody(4 << 10)
	reached := false
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	body := &endlessBody{remaining: 200 << 20}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/register", body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	req.RemoteAddr = "9.9.9.9:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if reached {
		t.Fatal("handler must not run for an oversized body")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(pkgerrors.CodeValidation)) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if body.read > 4<<10+1 {
		t.Fatalf("expected at most %d bytes read, got %d", 4<<10+1, body.read)
	}
	if len(store.counts) != 0 {
		t.Fatalf("oversized body must not be counted: %v", store.counts)
	}
}

func TestAuthRateLimitPolicyDefaultBodyLimit(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 1, 1)
	if policy.bodyLimit() != defaultMaxBody {
		t.Fatalf("expected default limit, got %d", policy.bodyLimit())
	}
	if got := policy.WithMaxBody(10).bodyLimit(); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}

// endlessBody streams filler bytes and records how many were consumed.
type endlessBody struct {
	remaining int64
	read      int64
}

func (b *endlessBody) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, io.EOF
	}
	n := int64(len(p))
	if n > b.remaining {
		n = b.remaining
	}
	for i := range p[:n] {
		p[i] = 'a'
	}
	b.remaining -= n
	b.read += n
	return int(n), nil
}

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}
