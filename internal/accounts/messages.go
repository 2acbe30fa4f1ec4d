package accounts

// Message ids returned in errors and acknowledgements. They are translated by
// the response layer using the request language.
const (
	MsgUnauthenticated = "auth.unauthenticated"

	MsgEmailRequired     = "accounts.email.required"
	MsgEmailInvalid      = "accounts.email.invalid"
	MsgEmailDuplicate    = "accounts.email.duplicate"
	MsgPasswordRequired  = "accounts.password.required"
	MsgPassword1Required = "accounts.password1.required"
	MsgPassword2Required = "accounts.password2.required"
	MsgPasswordLength    = "accounts.password.length"
	MsgPasswordSpecial   = "accounts.password.special"
	MsgPasswordDigit     = "accounts.password.digit"
	MsgPasswordLetter    = "accounts.password.letter"
	MsgPasswordMismatch  = "accounts.password.mismatch"
	MsgOldPasswordEmpty  = "accounts.password.old_required"
	MsgOldPasswordWrong  = "accounts.password.old_incorrect"

	MsgNicknameRequired  = "accounts.nickname.required"
	MsgNicknameLength    = "accounts.nickname.length"
	MsgNicknameSpecial   = "accounts.nickname.special"
	MsgNicknameDuplicate = "accounts.nickname.duplicate"

	MsgFieldRequired = "accounts.development_field.required"
	MsgFieldInvalid  = "accounts.development_field.invalid"

	MsgImageInvalid     = "accounts.profile_image.invalid"
	MsgImageTooLarge    = "accounts.profile_image.too_large"
	MsgImageUnavailable = "accounts.profile_image.unavailable"

	MsgLoginFailed      = "accounts.login.failed"
	MsgLoginInactive    = "accounts.login.inactive"
	MsgUserNotFound     = "accounts.user.not_found"
	MsgInvalidToken     = "accounts.confirm.invalid_token"
	MsgResetUnknown     = "accounts.reset.unknown_email"
	MsgResetInvalidLink = "accounts.reset.invalid_link"
	MsgMailUnavailable  = "accounts.mail.unavailable"

	MsgRegisterSent    = "accounts.register.sent"
	MsgConfirmDone     = "accounts.confirm.done"
	MsgConfirmResent   = "accounts.confirm.resent"
	MsgProfileUpdated  = "accounts.profile.updated"
	MsgDeleteDone      = "accounts.delete.done"
	MsgPasswordChanged = "accounts.password.changed"
	MsgResetSent       = "accounts.reset.sent"
	MsgResetDone       = "accounts.reset.done"
	MsgLogoutDone      = "accounts.logout.done"

	msgAlertWelcome = "alerts.welcome"
)
