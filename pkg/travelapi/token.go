package travelapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims the travel API puts into its access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims

	UserID    int64  `json:"user_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
}

// ParseAccessToken reads the claims of an access token.
//
// With a secret the HS256 signature and expiry are verified against now. Without one the
// token is only decoded: the travel API stays the authority and will reject it on use.
func ParseAccessToken(tokenString, secret string, now time.Time) (*AccessClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}

	claims := &AccessClaims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != "" && claims.TokenType != "access" {
		return nil, fmt.Errorf("not an access token: %s", claims.TokenType)
	}
	return claims, nil
}

// TokenExpiry returns the exp claim of tokenString without verifying it.
// ok is false when the token cannot be decoded or has no exp.
func TokenExpiry(tokenString string) (exp time.Time, ok bool) {
	claims, err := ParseAccessToken(tokenString, "", time.Time{})
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
