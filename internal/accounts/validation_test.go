package accounts

import (
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
)

func TestCheckPasswordReportsFirstFailure(t *testing.T) {
	cases := []struct {
		password string
		want     error
	}{
		{"a1!", ErrPasswordLength},
		{"abc!1234567890123", ErrPasswordLength},
		{"abcd1234", ErrPasswordSpecial},
		{"abcd!efg", ErrPasswordDigit},
		{"1234!567", ErrPasswordLetter},
		{"abcd!234", nil},
		{"abcdefg!1234567", nil},
		{"비밀번호입니다!1", nil},
	}

	for _, tc := range cases {
		got := CheckPassword(tc.password)
		if !errors.Is(got, tc.want) && !(got == nil && tc.want == nil) {
			t.Fatalf("CheckPassword(%q): expected %v, got %v", tc.password, tc.want, got)
		}
	}
}

func TestCheckPasswordLengthCountsCharacters(t *testing.T) {
	// 8 characters, 18 bytes.
	if err := CheckPassword("가나다라마!1a"); err != nil {
		t.Fatalf("expected multibyte password to pass, got %v", err)
	}
	if err := CheckPassword(strings.Repeat("가", 14) + "!1"); !errors.Is(err, ErrPasswordLength) {
		t.Fatalf("expected 16 characters to fail on length, got %v", err)
	}
}

func TestCheckNickname(t *testing.T) {
	cases := []struct {
		nickname string
		want     error
	}{
		{"a", ErrNicknameLength},
		{"abcdefghijklmnop", ErrNicknameLength},
		{"dev!kim", ErrNicknameSpecial},
		{"dev_kim", ErrNicknameSpecial},
		{"devkim", nil},
		{"개발자", nil},
		{"dev-kim", nil},
	}

	for _, tc := range cases {
		got := CheckNickname(tc.nickname)
		if !errors.Is(got, tc.want) && !(got == nil && tc.want == nil) {
			t.Fatalf("CheckNickname(%q): expected %v, got %v", tc.nickname, tc.want, got)
		}
	}
}

func TestCheckPasswordsMatch(t *testing.T) {
	if err := CheckPasswordsMatch("abcd!234", "abcd!234"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPasswordsMatch("abcd!234", "abcd!235"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestFormAggregatesFirstMessagePerField(t *testing.T) {
	f := &form{}
	f.checkEmail("not-an-email")
	f.checkNickname("x")
	f.checkDevelopmentField("painter")
	f.checkNewPassword("password1", "short", "password2", "other")

	err := f.err()
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := pkgerrors.As(err).Message(); got != MsgEmailInvalid {
		t.Fatalf("expected first failure as message, got %q", got)
	}

	want := map[string]string{
		"email":             MsgEmailInvalid,
		"nickname":          MsgNicknameLength,
		"development_field": MsgFieldInvalid,
		"password1":         MsgPasswordLength,
		pkgerrors.FormField: MsgPasswordMismatch,
	}
	details := pkgerrors.FieldDetails(err)
	for field, msg := range want {
		if details[field] != msg {
			t.Fatalf("expected %s=%q, got %q (all: %v)", field, msg, details[field], details)
		}
	}
}

func TestFormMissingPasswordsSkipMismatch(t *testing.T) {
	f := &form{}
	f.checkNewPassword("password1", "", "password2", "")
	details := pkgerrors.FieldDetails(f.err())
	if details["password1"] != MsgPassword1Required || details["password2"] != MsgPassword2Required {
		t.Fatalf("unexpected details %v", details)
	}
	if _, ok := details[pkgerrors.FormField]; ok {
		t.Fatalf("mismatch must not be reported without both passwords: %v", details)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Dev@Example.COM "); got != "dev@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}
