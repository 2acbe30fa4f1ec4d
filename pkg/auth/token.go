// Package auth mints and parses the JWTs the API hands out: short lived
// access tokens and password reset tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/devtail-backend/pkg/config"
)

var (
	signingMethod = jwt.SigningMethodHS256

	errNoSecret = errors.New("jwt secret is required")
	errNoUser   = errors.New("user id is required")
)

func sign(claims jwt.Claims, key []byte) (string, error) {
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parse verifies tokenString into claims. Only HS256 with key is accepted.
func parse(tokenString string, claims jwt.Claims, key []byte, opts ...jwt.ParserOption) error {
	opts = append(opts, jwt.WithValidMethods([]string{signingMethod.Alg()}))
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	return err
}

// MintAccessToken signs an access token for payload.UserID valid for
// cfg.ExpirationMinutes. The jti names the session; one is generated when
// the payload has none.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errNoSecret
	case cfg.Issuer == "":
		return "", errors.New("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return "", errors.New("jwt expiration minutes must be positive")
	case payload.UserID == 0:
		return "", errNoUser
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	return sign(AccessTokenClaims{
		UserID: payload.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   strconv.FormatUint(payload.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
		},
	}, []byte(cfg.Secret))
}

// ParseAccessToken returns the claims of a valid, unexpired access token.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parseAccess(cfg, tokenString, jwt.WithExpirationRequired())
}

// ParseAccessTokenAllowExpired checks only the signature. Logout and refresh
// use it to find the session of a token that has run out.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parseAccess(cfg, tokenString, jwt.WithoutClaimsValidation())
}

func parseAccess(cfg config.JWTConfig, tokenString string, opt jwt.ParserOption) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, errNoSecret
	}
	claims := &AccessTokenClaims{}
	if err := parse(tokenString, claims, []byte(cfg.Secret), opt, jwt.WithIssuer(cfg.Issuer)); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, errNoUser
	}
	return claims, nil
}
