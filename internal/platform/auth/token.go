package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "medifriend"

// TokenCodec signs and verifies the client-side session token. The token only
// carries the session id; identity and role always come from the store.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret}
}

// Sign returns an HS256 token for the session that expires with it.
func (tc *TokenCodec) Sign(sess *Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, issuer and expiry and returns the session id.
func (tc *TokenCodec) Parse(token string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return tc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrSessionExpired
		}
		return "", ErrInvalidToken
	}
	if !parsed.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
