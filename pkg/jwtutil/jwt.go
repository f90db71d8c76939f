package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("token is invalid or expired")

// Config holds JWT configuration
type Config struct {
	SigningKey    string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// UserClaims represents the JWT claims for API authentication
type UserClaims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Pair is an access/refresh token couple
type Pair struct {
	Access  string
	Refresh string
}

// JWTUtil issues and validates HS256 tokens
type JWTUtil struct {
	config Config
	now    func() time.Time
}

func NewJWTUtil(config Config) *JWTUtil {
	return &JWTUtil{config: config, now: time.Now}
}

// GeneratePair creates an access and a refresh token for the user
func (j *JWTUtil) GeneratePair(userID uuid.UUID, username, role string) (*Pair, error) {
	access, err := j.generate(userID.String(), username, role, TokenTypeAccess, j.config.AccessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := j.generate(userID.String(), username, role, TokenTypeRefresh, j.config.RefreshExpiry)
	if err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh}, nil
}

// Refresh validates a refresh token and issues a new access token from it
func (j *JWTUtil) Refresh(refreshToken string) (string, error) {
	claims, err := j.Validate(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return j.generate(claims.UserID, claims.Username, claims.Role, TokenTypeAccess, j.config.AccessExpiry)
}

func (j *JWTUtil) generate(userID, username, role, tokenType string, ttl time.Duration) (string, error) {
	if j.config.SigningKey == "" {
		return "", errors.New("JWT signing key not configured")
	}

	now := j.now()
	claims := UserClaims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.SigningKey))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Validate parses the token and checks its type. An empty expectedType
// accepts either kind.
func (j *JWTUtil) Validate(tokenString, expectedType string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if expectedType != "" && claims.TokenType != expectedType {
		return nil, fmt.Errorf("%w: wrong token type %q", ErrInvalidToken, claims.TokenType)
	}
	return claims, nil
}
