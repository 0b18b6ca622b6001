// Package auth implements the bearer token codec: HS256-signed tokens that
// carry a user id and the session marker they were minted under.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. Subject holds the user id; Session holds the
// marker that must still be current for the token to authenticate.
type Claims struct {
	Session string `json:"session"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a single process-wide key.
// It never consults the store.
type Codec struct {
	key []byte
}

// NewCodec returns a codec bound to secret.
func NewCodec(secret string) *Codec {
	return &Codec{key: []byte(secret)}
}

// Encode mints a token for subject under the given session marker.
func (c *Codec) Encode(subject, session string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Session: session,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenString, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// Decode verifies signature and expiry. Every failure, whatever its cause,
// is reported as common.ErrInvalidToken.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
