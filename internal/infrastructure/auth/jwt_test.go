package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/backend/internal/infrastructure/config"
)

func testService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: "test-secret-at-least-32-bytes-long", ExpirationHours: 1})
}

func TestJWTService_IssueAndValidateRoundTrip(t *testing.T) {
	s := testService()

	token, expiresAt, err := s.IssueToken("operator-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Second)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", claims.Subject)
}

func TestJWTService_RejectsTamperedToken(t *testing.T) {
	s := testService()
	token, _, err := s.IssueToken("operator-1")
	require.NoError(t, err)

	_, err = s.ValidateToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	s1 := testService()
	s2 := NewJWTService(config.JWTConfig{Secret: "a-completely-different-secret-value", ExpirationHours: 1})

	token, _, err := s1.IssueToken("operator-1")
	require.NoError(t, err)

	_, err = s2.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	s := NewJWTService(config.JWTConfig{Secret: "test-secret-at-least-32-bytes-long", ExpirationHours: 0})
	token, _, err := s.IssueToken("operator-1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
