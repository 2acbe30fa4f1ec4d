package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uint64
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. The JWT id
// doubles as the session id the refresh token is stored under.
type AccessTokenClaims struct {
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}

// PasswordResetClaims binds a reset link to one user and to the credential
// state the link was issued for.
type PasswordResetClaims struct {
	UserID      uint64 `json:"uid"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// Caller is the authenticated identity resolved from a request.
type Caller struct {
	UserID    uint64
	SessionID string
}

// Authenticated reports whether the caller carries a resolved identity.
func (c Caller) Authenticated() bool {
	return c.UserID != 0
}
