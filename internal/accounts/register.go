package accounts

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/devtail-backend/internal/alerts"
	"github.com/angelmondragon/devtail-backend/internal/users"
	"github.com/angelmondragon/devtail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/locale"
	"github.com/angelmondragon/devtail-backend/pkg/metrics"
)

// ProfilePath is the page the welcome alert links to.
const ProfilePath = "/accounts/profile/"

// Register validates the signup form, creates the pending user and mails the
// confirmation link. The insert and the mail share one transaction: when the
// mail cannot be sent nothing is persisted and the form can be resubmitted.
func (s *service) Register(ctx context.Context, req RegisterRequest) error {
	email := NormalizeEmail(req.Email)
	nickname := strings.TrimSpace(req.Nickname)

	f := &form{}
	f.checkEmail(email)
	f.checkNickname(nickname)
	field := f.checkDevelopmentField(req.DevelopmentField)
	f.checkNewPassword("password1", req.Password1, "password2", req.Password2)
	sniffed := f.checkImage(req.ProfileImage, s.cfg.Storage.MaxImageBytes())
	if err := s.checkTaken(ctx, f, email, nickname, 0); err != nil {
		return err
	}
	if !f.valid() {
		return f.err()
	}

	hash, err := s.hashPassword(req.Password1)
	if err != nil {
		return err
	}
	imageKey, err := s.storeImage(ctx, req.ProfileImage, sniffed)
	if err != nil {
		return err
	}
	var image *string
	if imageKey != "" {
		image = &imageKey
	}

	code := uuid.New()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.users.WithTx(tx).Create(ctx, users.CreateUserDTO{
			Email:            email,
			PasswordHash:     hash,
			Nickname:         nickname,
			DevelopmentField: field,
			Content:          trimOptional(req.Content),
			ProfileImage:     image,
			AuthCode:         code,
			AuthCodeIssuedAt: s.now(),
		})
		if err != nil {
			return duplicateFieldError(err, "create user")
		}
		return s.notifier.sendConfirmation(ctx, email, code)
	})
	if err != nil {
		s.discardImage(ctx, imageKey)
		return err
	}

	s.metrics.Inc(metrics.EventRegistered)
	return nil
}

// checkTaken adds uniqueness failures for fields that passed their format
// rules. excludeID skips the caller's own row on profile edits.
func (s *service) checkTaken(ctx context.Context, f *form, email, nickname string, excludeID uint64) error {
	if email != "" && validEmail(email) {
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}
		if taken {
			f.fail("email", MsgEmailDuplicate)
		}
	}
	if nickname != "" && CheckNickname(nickname) == nil {
		taken, err := s.users.ExistsByNickname(ctx, nickname, excludeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check nickname")
		}
		if taken {
			f.fail("nickname", MsgNicknameDuplicate)
		}
	}
	return nil
}

// duplicateFieldError turns a unique violation that slipped past the
// pre-checks into the same field error the pre-check would have produced.
func duplicateFieldError(err error, op string) error {
	f := &form{}
	switch {
	case errors.Is(err, users.ErrDuplicateEmail):
		f.fail("email", MsgEmailDuplicate)
	case errors.Is(err, users.ErrDuplicateNickname):
		f.fail("nickname", MsgNicknameDuplicate)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
	}
	return f.err()
}

// ConfirmEmail activates the account holding token and posts the welcome
// alert. Unknown, malformed and already used tokens fail the same way.
func (s *service) ConfirmEmail(ctx context.Context, token string) error {
	invalid := pkgerrors.New(pkgerrors.CodeNotFound, MsgInvalidToken)

	code, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return invalid
	}
	user, err := s.users.FindByAuthCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return invalid
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find pending user")
	}

	profileURL := ProfilePath + strconv.FormatUint(user.ID, 10)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		activated, err := s.users.WithTx(tx).Activate(ctx, user.ID, code)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate user")
		}
		if !activated {
			return invalid
		}
		_, err = s.alerts.WithTx(tx).Create(ctx, alerts.CreateParams{
			UserID:   user.ID,
			Category: enums.AlertCategoryOther,
			Content:  locale.Translate(ctx, msgAlertWelcome, nil),
			URL:      &profileURL,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.Inc(metrics.EventConfirmed)
	return nil
}

// ResendConfirmation replaces the code of a pending account and mails it
// again. The outcome is the same whether or not such an account exists.
// Inactive accounts without a code are not pending and get nothing.
func (s *service) ResendConfirmation(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	f := &form{}
	f.checkEmail(email)
	if !f.valid() {
		return f.err()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	if user.IsActive || user.AuthCode == nil {
		return nil
	}

	code := uuid.New()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).UpdateAuthCode(ctx, user.ID, code, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace auth code")
		}
		return s.notifier.sendConfirmation(ctx, user.Email, code)
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			if s.logg != nil {
				s.logg.Error(s.logg.WithUserID(ctx, user.ID), "confirmation resend failed", err)
			}
			return nil
		}
		return err
	}

	s.metrics.Inc(metrics.EventConfirmResent)
	return nil
}
