// Package signing produces tamper-evident, URL-safe tokens that carry a single
// string value, such as the username in an account activation link.
package signing

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrBadSignature     = errors.New("bad signature")
	ErrSignatureExpired = fmt.Errorf("signature expired: %w", ErrBadSignature)
)

// Signer signs values with a key derived from a secret and a salt. Tokens
// signed under one salt never verify under another.
type Signer struct {
	key    []byte
	salt   string
	maxAge time.Duration
	now    func() time.Time
}

// New builds a signer. maxAge of zero disables expiry.
func New(secret, salt string, maxAge time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	sum := sha256.Sum256([]byte(salt + "signer" + secret))
	return &Signer{key: sum[:], salt: salt, maxAge: maxAge, now: time.Now}, nil
}

type claims struct {
	Value string `json:"v"`
	jwt.RegisteredClaims
}

// Sign returns a token encoding value.
func (s *Signer) Sign(value string) (string, error) {
	now := s.now()
	c := claims{
		Value: value,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{s.salt},
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.maxAge > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(s.maxAge))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign value: %w", err)
	}
	return token, nil
}

// Unsign verifies token and returns the value it carries. Any tampering,
// wrong salt or malformed input yields ErrBadSignature; an expired token
// yields ErrSignatureExpired, which also matches ErrBadSignature.
func (s *Signer) Unsign(token string) (string, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c,
		func(t *jwt.Token) (interface{}, error) {
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(s.salt),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrSignatureExpired
		}
		return "", fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !parsed.Valid {
		return "", ErrBadSignature
	}
	return c.Value, nil
}
