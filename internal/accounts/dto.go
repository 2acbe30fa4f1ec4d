package accounts

import "github.com/angelmondragon/devtail-backend/internal/users"

// RegisterRequest is the signup form. Passwords are never logged.
type RegisterRequest struct {
	Email            string
	Password1        string
	Password2        string
	Nickname         string
	DevelopmentField string
	Content          *string
	ProfileImage     *ImageUpload
}

// LoginRequest captures the credentials and the optional post-login path.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

// TokenPair is an access token plus the refresh token bound to its session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	TokenPair
	RedirectTo string         `json:"redirect_to"`
	User       *users.UserDTO `json:"user"`
}

// UpdateProfileRequest is the profile edit form. A nil image keeps the
// current one.
type UpdateProfileRequest struct {
	Nickname         string
	DevelopmentField string
	Content          *string
	ProfileImage     *ImageUpload
}

type ChangePasswordRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

// ResetPasswordRequest completes a reset started from a mailed link.
type ResetPasswordRequest struct {
	UIDB64       string `json:"-"`
	Token        string `json:"-"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}
