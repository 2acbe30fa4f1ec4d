package accounts

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/angelmondragon/devtail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
)

// SpecialChars is the set a password must draw from and a nickname must avoid.
const SpecialChars = "~!@#$%^&*()_+"

const (
	passwordMinLength = 8
	passwordMaxLength = 15
	nicknameMinLength = 2
	nicknameMaxLength = 15
)

// Rule violations. The error text is the message id reported to the client.
var (
	ErrPasswordLength   = errors.New(MsgPasswordLength)
	ErrPasswordSpecial  = errors.New(MsgPasswordSpecial)
	ErrPasswordDigit    = errors.New(MsgPasswordDigit)
	ErrPasswordLetter   = errors.New(MsgPasswordLetter)
	ErrPasswordMismatch = errors.New(MsgPasswordMismatch)
	ErrNicknameLength   = errors.New(MsgNicknameLength)
	ErrNicknameSpecial  = errors.New(MsgNicknameSpecial)
)

var validate = validator.New()

// CheckPassword applies the password rules in order and reports only the
// first one that fails. Length counts characters, not bytes.
func CheckPassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < passwordMinLength || n > passwordMaxLength {
		return ErrPasswordLength
	}
	if !strings.ContainsAny(password, SpecialChars) {
		return ErrPasswordSpecial
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return ErrPasswordDigit
	}
	if !strings.ContainsFunc(password, unicode.IsLetter) {
		return ErrPasswordLetter
	}
	return nil
}

// CheckNickname applies the nickname length and charset rules.
func CheckNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n < nicknameMinLength || n > nicknameMaxLength {
		return ErrNicknameLength
	}
	if strings.ContainsAny(nickname, SpecialChars) {
		return ErrNicknameSpecial
	}
	return nil
}

func CheckPasswordsMatch(password1, password2 string) error {
	if password1 != password2 {
		return ErrPasswordMismatch
	}
	return nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email,max=254") == nil
}

// form collects field failures until the request has been fully checked.
type form struct {
	errs error
}

func (f *form) fail(field, message string) {
	f.errs = multierr.Append(f.errs, pkgerrors.Field(field, message))
}

func (f *form) check(field string, err error) {
	if err != nil {
		f.fail(field, err.Error())
	}
}

func (f *form) valid() bool {
	return f.errs == nil
}

func (f *form) err() error {
	return pkgerrors.FromFieldErrors(f.errs)
}

func (f *form) checkEmail(email string) {
	switch {
	case email == "":
		f.fail("email", MsgEmailRequired)
	case !validEmail(email):
		f.fail("email", MsgEmailInvalid)
	}
}

func (f *form) checkNickname(nickname string) {
	if nickname == "" {
		f.fail("nickname", MsgNicknameRequired)
		return
	}
	f.check("nickname", CheckNickname(nickname))
}

func (f *form) checkDevelopmentField(value string) enums.DevelopmentField {
	if strings.TrimSpace(value) == "" {
		f.fail("development_field", MsgFieldRequired)
		return ""
	}
	field, err := enums.ParseDevelopmentField(value)
	if err != nil {
		f.fail("development_field", MsgFieldInvalid)
		return ""
	}
	return field
}

// checkNewPassword validates a password pair. Strength failures bind to the
// first field; a mismatch is a form level failure.
func (f *form) checkNewPassword(field1, password1, field2, password2 string) {
	if password1 == "" {
		f.fail(field1, MsgPassword1Required)
	} else {
		f.check(field1, CheckPassword(password1))
	}
	if password2 == "" {
		f.fail(field2, MsgPassword2Required)
	}
	if password1 != "" && password2 != "" {
		f.check(pkgerrors.FormField, CheckPasswordsMatch(password1, password2))
	}
}
