// Package auth issues and verifies preview access tokens. A token grants
// access to exactly one resource until it expires.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims plus the resource the token is
// scoped to.
type Claims struct {
	jwt.RegisteredClaims
	ResourceID string `json:"rid"`
}

// GenerateToken signs an HS256 token for resourceID valid from now for
// validity. It returns the token and its expiry.
func GenerateToken(resourceID string, secretKey []byte, now time.Time, validity time.Duration) (string, time.Time, error) {
	expires := now.Add(validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   resourceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		ResourceID: resourceID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expires, nil
}

// GetResourceIDFromToken verifies tokenString and returns the resource it is
// scoped to. Expired tokens yield common.ErrTokenExpired; anything else that
// fails verification yields common.ErrInvalidToken.
func GetResourceIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.ResourceID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.ResourceID, nil
}
