package accounts

import (
	"context"
	"crypto/subtle"

	pkgAuth "github.com/angelmondragon/devtail-backend/pkg/auth"
	"github.com/angelmondragon/devtail-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/metrics"
	"github.com/angelmondragon/devtail-backend/pkg/security"
)

// RequestPasswordReset mails a reset link to a registered address. Unknown
// addresses are reported to the client. Pending accounts get no mail but the
// same acknowledgement.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	f := &form{}
	f.checkEmail(email)
	if !f.valid() {
		return f.err()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			f.fail("email", MsgResetUnknown)
			return f.err()
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	if !user.IsActive {
		if s.logg != nil {
			s.logg.Info(s.logg.WithUserID(ctx, user.ID), "password reset skipped for pending account")
		}
		return nil
	}

	token, err := pkgAuth.MintPasswordResetToken(s.cfg.JWT, s.now(), user.ID, fingerprint(user))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint reset token")
	}
	if err := s.notifier.sendPasswordReset(ctx, user, pkgAuth.EncodeUID(user.ID), token); err != nil {
		return err
	}

	s.metrics.Inc(metrics.EventResetRequested)
	return nil
}

// CheckResetLink reports whether a mailed link is still usable.
func (s *service) CheckResetLink(ctx context.Context, uidb64, token string) error {
	_, err := s.resolveResetLink(ctx, uidb64, token)
	return err
}

// ResetPassword sets a new password through a reset link. The link is checked
// before the form, and stops working once the password changes.
func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	user, err := s.resolveResetLink(ctx, req.UIDB64, req.Token)
	if err != nil {
		return err
	}

	f := &form{}
	f.checkNewPassword("new_password1", req.NewPassword1, "new_password2", req.NewPassword2)
	if !f.valid() {
		return f.err()
	}

	hash, err := s.hashPassword(req.NewPassword1)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	s.revokeSessions(ctx, user.ID)
	s.metrics.Inc(metrics.EventResetCompleted)
	return nil
}

// resolveResetLink returns the user a link was issued for. The token must be
// signed for the uid in the link and match the user's current credentials.
func (s *service) resolveResetLink(ctx context.Context, uidb64, token string) (*models.User, error) {
	invalid := pkgerrors.New(pkgerrors.CodeValidation, MsgResetInvalidLink)

	uid, err := pkgAuth.DecodeUID(uidb64)
	if err != nil {
		return nil, invalid
	}
	claims, err := pkgAuth.ParsePasswordResetToken(s.cfg.JWT, token)
	if err != nil || claims.UserID != uid {
		return nil, invalid
	}
	user, err := s.users.FindByID(ctx, uid)
	if err != nil {
		if isNotFound(err) {
			return nil, invalid
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	if !user.IsActive || subtle.ConstantTimeCompare([]byte(claims.Fingerprint), []byte(fingerprint(user))) != 1 {
		return nil, invalid
	}
	return user, nil
}

func fingerprint(user *models.User) string {
	return security.CredentialFingerprint(user.PasswordHash, user.LastLoginAt)
}
