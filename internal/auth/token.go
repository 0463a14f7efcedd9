package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
)

type sessionClaims struct {
	UID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// TokenCodec issues and decodes signed session tokens. A token carries the
// admin id and its issuance time; how long it stays valid is decided by the
// caller at decode time, so there is no expiry inside the token itself.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

type TokenCodecOption func(*TokenCodec)

// WithClock replaces time.Now, used by tests to move time around.
func WithClock(now func() time.Time) TokenCodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

func NewTokenCodec(secretKey string, opts ...TokenCodecOption) (*TokenCodec, error) {
	if secretKey == "" {
		return nil, errors.New("empty secret key")
	}
	c := &TokenCodec{
		secret: []byte(secretKey),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue returns a URL-safe HS256 signed token for the admin id.
func (c *TokenCodec) Issue(adminID int64) (string, error) {
	claims := sessionClaims{
		UID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns the admin id in it. It fails with
// ErrExpiredToken when more than maxAge passed since issuance and with
// ErrInvalidToken for anything else that is wrong with the token.
func (c *TokenCodec) Decode(token string, maxAge time.Duration) (int64, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(*jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	if claims.IssuedAt == nil || claims.UID <= 0 {
		return 0, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}

	// iat only has second precision
	if c.now().Truncate(time.Second).Sub(claims.IssuedAt.Time) > maxAge {
		return 0, ErrExpiredToken
	}

	return claims.UID, nil
}
