package accounts

import (
	"context"
	"strings"

	"github.com/angelmondragon/devtail-backend/internal/users"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/metrics"
)

// Login checks the credentials, applies the login policy and opens a
// session. Unknown emails and wrong passwords produce the same error.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := NormalizeEmail(req.Email)

	f := &form{}
	if email == "" {
		f.fail("email", MsgEmailRequired)
	}
	if req.Password == "" {
		f.fail("password", MsgPasswordRequired)
	}
	if !f.valid() {
		return nil, f.err()
	}

	failed := pkgerrors.New(pkgerrors.CodeValidation, MsgLoginFailed)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
		}
		s.burnPasswordCheck(req.Password)
		s.metrics.Inc(metrics.EventLoginFailed)
		return nil, failed
	}

	ok, err := s.verifyPassword(user, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.Inc(metrics.EventLoginFailed)
		return nil, failed
	}

	if err := s.policy(user); err != nil {
		s.metrics.Inc(metrics.EventLoginBlocked)
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	s.upgradeHash(ctx, user, req.Password)

	tokens, err := s.issueSession(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(metrics.EventLoginSucceeded)
	return &LoginResult{
		TokenPair:  *tokens,
		RedirectTo: s.redirectTarget(strings.TrimSpace(req.Next)),
		User:       users.FromModel(user, s.imageURL),
	}, nil
}
