package auth

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/devtail-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

const passwordResetAudience = "password_reset"

// Reset tokens are signed with a key derived from the JWT secret so an access
// token can never pass as a reset token and vice versa.
func resetSigningKey(secret string) []byte {
	return []byte(secret + ":" + passwordResetAudience)
}

// MintPasswordResetToken issues a reset token for userID that expires after
// cfg.PasswordResetTTL and is only valid while fingerprint still matches.
func MintPasswordResetToken(cfg config.JWTConfig, now time.Time, userID uint64, fingerprint string) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errNoSecret
	case userID == 0:
		return "", errNoUser
	case cfg.PasswordResetTTL <= 0:
		return "", fmt.Errorf("password reset ttl must be positive")
	}

	return sign(PasswordResetClaims{
		UserID:      userID,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   strconv.FormatUint(userID, 10),
			Audience:  jwt.ClaimStrings{passwordResetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.PasswordResetTTL)),
		},
	}, resetSigningKey(cfg.Secret))
}

// ParsePasswordResetToken validates signature, audience and expiry.
func ParsePasswordResetToken(cfg config.JWTConfig, tokenString string) (*PasswordResetClaims, error) {
	if cfg.Secret == "" {
		return nil, errNoSecret
	}
	claims := &PasswordResetClaims{}
	err := parse(tokenString, claims, resetSigningKey(cfg.Secret),
		jwt.WithAudience(passwordResetAudience),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// EncodeUID renders a user id for embedding in a reset link.
func EncodeUID(userID uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(userID, 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(encoded string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return 0, fmt.Errorf("decode uid: %w", err)
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid uid %q", raw)
	}
	return id, nil
}
