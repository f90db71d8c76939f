package jwtutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUtil() *JWTUtil {
	return NewJWTUtil(Config{
		SigningKey:    "test-key",
		AccessExpiry:  5 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})
}

func TestGeneratePairAndValidate(t *testing.T) {
	j := newTestUtil()
	id := uuid.New()

	pair, err := j.GeneratePair(id, "alice", "customer")
	require.NoError(t, err)

	claims, err := j.Validate(pair.Access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = j.Validate(pair.Refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = j.Validate(pair.Access, "")
	assert.NoError(t, err)
}

func TestRefreshIssuesAccessToken(t *testing.T) {
	j := newTestUtil()
	pair, err := j.GeneratePair(uuid.New(), "bob", "customer")
	require.NoError(t, err)

	access, err := j.Refresh(pair.Refresh)
	require.NoError(t, err)

	claims, err := j.Validate(access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Username)

	_, err = j.Refresh(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	j := newTestUtil()
	issued := time.Now().Add(-time.Hour)
	j.now = func() time.Time { return issued }
	pair, err := j.GeneratePair(uuid.New(), "carol", "customer")
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.Validate(pair.Access, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTUtil(Config{SigningKey: "other", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	fresh, err := other.GeneratePair(uuid.New(), "dave", "customer")
	require.NoError(t, err)
	_, err = j.Validate(fresh.Access, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
