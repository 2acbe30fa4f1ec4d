package accounts

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/devtail-backend/internal/users"
	pkgAuth "github.com/angelmondragon/devtail-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/metrics"
)

// GetProfile returns the profile of userID. Owner-only fields are included
// when the caller views their own profile.
func (s *service) GetProfile(ctx context.Context, caller pkgAuth.Caller, userID uint64) (*users.UserDTO, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, MsgUserNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}

	dto := users.FromModel(user, s.imageURL)
	if caller.UserID != user.ID {
		return dto.Public(), nil
	}
	return dto, nil
}

// UpdateProfile edits the caller's own profile. A new image replaces the old
// object, which is removed after the row is updated.
func (s *service) UpdateProfile(ctx context.Context, caller pkgAuth.Caller, req UpdateProfileRequest) (*users.UserDTO, error) {
	current, err := s.loadCaller(ctx, caller)
	if err != nil {
		return nil, err
	}

	nickname := strings.TrimSpace(req.Nickname)
	f := &form{}
	f.checkNickname(nickname)
	field := f.checkDevelopmentField(req.DevelopmentField)
	sniffed := f.checkImage(req.ProfileImage, s.cfg.Storage.MaxImageBytes())
	if err := s.checkTaken(ctx, f, "", nickname, current.ID); err != nil {
		return nil, err
	}
	if !f.valid() {
		return nil, f.err()
	}

	imageKey, err := s.storeImage(ctx, req.ProfileImage, sniffed)
	if err != nil {
		return nil, err
	}
	update := users.ProfileUpdate{
		Nickname:         nickname,
		DevelopmentField: field,
		Content:          trimOptional(req.Content),
	}
	if imageKey != "" {
		update.ProfileImage = &imageKey
	}

	if err := s.users.UpdateProfile(ctx, current.ID, update); err != nil {
		s.discardImage(ctx, imageKey)
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgUnauthenticated)
		}
		return nil, duplicateFieldError(err, "update profile")
	}
	if imageKey != "" && current.ProfileImage != nil {
		s.discardImage(ctx, *current.ProfileImage)
	}

	updated, err := s.users.FindByID(ctx, current.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	s.metrics.Inc(metrics.EventProfileUpdated)
	return users.FromModel(updated, s.imageURL), nil
}

// ChangePassword replaces the caller's password, revokes every session and
// returns a fresh one for the current client.
func (s *service) ChangePassword(ctx context.Context, caller pkgAuth.Caller, req ChangePasswordRequest) (*TokenPair, error) {
	user, err := s.loadCaller(ctx, caller)
	if err != nil {
		return nil, err
	}

	f := &form{}
	if req.OldPassword == "" {
		f.fail("old_password", MsgOldPasswordEmpty)
	} else {
		ok, err := s.verifyPassword(user, req.OldPassword)
		if err != nil {
			return nil, err
		}
		if !ok {
			f.fail("old_password", MsgOldPasswordWrong)
		}
	}
	f.checkNewPassword("new_password1", req.NewPassword1, "new_password2", req.NewPassword2)
	if !f.valid() {
		return nil, f.err()
	}

	hash, err := s.hashPassword(req.NewPassword1)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	s.revokeSessions(ctx, user.ID)
	s.metrics.Inc(metrics.EventPasswordChanged)

	return s.issueSession(ctx, user.ID, s.now())
}

// DeleteAccount removes the caller and their alerts once the password has
// been re-entered correctly. A wrong password leaves everything in place.
func (s *service) DeleteAccount(ctx context.Context, caller pkgAuth.Caller, password string) error {
	user, err := s.loadCaller(ctx, caller)
	if err != nil {
		return err
	}

	f := &form{}
	if password == "" {
		f.fail("password", MsgPasswordRequired)
		return f.err()
	}
	ok, err := s.verifyPassword(user, password)
	if err != nil {
		return err
	}
	if !ok {
		f.fail("password", MsgPasswordMismatch)
		return f.err()
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.alerts.WithTx(tx).DeleteForUser(ctx, user.ID); err != nil {
			return err
		}
		if err := s.users.WithTx(tx).Delete(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.revokeSessions(ctx, user.ID)
	if user.ProfileImage != nil {
		s.discardImage(ctx, *user.ProfileImage)
	}
	s.metrics.Inc(metrics.EventDeleted)
	return nil
}
