package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/devtail-backend/api/responses"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
)

const (
	msgRateLimited  = "request.rate_limited"
	msgBodyTooLarge = "request.body_too_large"
)

// defaultMaxBody caps the body buffered for email counting when the policy
// sets no limit of its own.
const defaultMaxBody = 1 << 20

// maxEmailLength bounds how much of a multipart email field is read.
const maxEmailLength = 320

const (
	scopeIP    = "ip"
	scopeEmail = "email"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy is a fixed window budget for one group of routes,
// counted per client address and per submitted email. A zero limit turns
// that counter off.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
	maxBody    int64
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

// WithMaxBody sets how many body bytes the email counter may buffer. Larger
// bodies are rejected before the handler runs.
func (p AuthRateLimitPolicy) WithMaxBody(n int64) AuthRateLimitPolicy {
	p.maxBody = n
	return p
}

func (p AuthRateLimitPolicy) bodyLimit() int64 {
	if p.maxBody <= 0 {
		return defaultMaxBody
	}
	return p.maxBody
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// key is <policy>:<scope>:<value>; the store adds its own namespace. Emails
// are hashed before they get here.
func (p AuthRateLimitPolicy) key(scope, value string) string {
	return p.name + ":" + scope + ":" + value
}

// AuthRateLimit rejects requests over budget with 429 and a Retry-After of
// one window. The request body is buffered up to the policy's body limit and
// handed on untouched.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || store == nil {
			return next
		}

		limiter := rateLimiter{policy: policy, store: store, logg: logg}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					if !limiter.admit(ctx, w, scopeIP, ip, policy.ipLimit) {
						return
					}
				}
			}

			if policy.emailLimit > 0 {
				body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, policy.bodyLimit()))
				if err != nil {
					msg := "request.invalid_body"
					var tooLarge *http.MaxBytesError
					if errors.As(err, &tooLarge) {
						msg = msgBodyTooLarge
					}
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := strings.ToLower(strings.TrimSpace(extractEmail(r.Header.Get("Content-Type"), body))); email != "" {
					if !limiter.admit(ctx, w, scopeEmail, hashValue(email), policy.emailLimit) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

type rateLimiter struct {
	policy AuthRateLimitPolicy
	store  rateLimiterStore
	logg   *logger.Logger
}

// admit counts one attempt against scope/value. When the request may not
// proceed the response has already been written.
func (l rateLimiter) admit(ctx context.Context, w http.ResponseWriter, scope, value string, limit int) bool {
	count, err := l.store.IncrWithTTL(ctx, l.policy.key(scope, value), l.policy.window)
	if err != nil {
		responses.WriteError(ctx, l.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit counter"))
		return false
	}
	if count <= int64(limit) {
		return true
	}

	if l.logg != nil {
		l.logg.Warn(l.logg.WithFields(ctx, map[string]any{
			"policy":   l.policy.name,
			"scope":    scope,
			"subject":  value,
			"attempts": count,
			"limit":    limit,
		}), "rate limit exceeded")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(l.policy.window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, msgRateLimited))
	return false
}

// clientIP prefers the first well-formed X-Forwarded-For hop, then
// X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// extractEmail finds the email field in a JSON or multipart body.
func extractEmail(contentType string, payload []byte) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType == "multipart/form-data" {
		return multipartEmail(params["boundary"], payload)
	}

	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return body.Email
}

func multipartEmail(boundary string, payload []byte) string {
	if boundary == "" {
		return ""
	}
	reader := multipart.NewReader(bytes.NewReader(payload), boundary)
	for {
		part, err := reader.NextPart()
		if err != nil {
			return ""
		}
		if part.FormName() != "email" || part.FileName() != "" {
			continue
		}
		value, err := io.ReadAll(io.LimitReader(part, maxEmailLength))
		if err != nil {
			return ""
		}
		return string(value)
	}
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
