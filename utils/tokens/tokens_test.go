package tokens

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	s := NewSigner("email-secret", "reset-secret")
	id := uuid.New()

	tok, err := s.Sign(id, "a@example.com", ScopeVerify, VerifyTTL)
	require.NoError(t, err)

	claims, err := s.Verify(tok, ScopeVerify)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims.Email)

	got, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerifyRejectsWrongScope(t *testing.T) {
	s := NewSigner("email-secret", "reset-secret")
	tok, err := s.Sign(uuid.New(), "a@example.com", ScopeReset, ResetTTL)
	require.NoError(t, err)

	_, err = s.Verify(tok, ScopeVerify)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Same secret for both scopes still fails on the scope claim.
	same := NewSigner("shared", "shared")
	tok, err = same.Sign(uuid.New(), "a@example.com", ScopeReset, ResetTTL)
	require.NoError(t, err)
	_, err = same.Verify(tok, ScopeVerify)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	s := NewSigner("email-secret", "reset-secret")
	tok, err := s.Sign(uuid.New(), "a@example.com", ScopeVerify, -time.Minute)
	require.NoError(t, err)

	_, err = s.Verify(tok, ScopeVerify)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	s := NewSigner("email-secret", "reset-secret")
	_, err := s.Verify("", ScopeVerify)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.Verify("not.a.jwt", ScopeReset)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignWithoutSecret(t *testing.T) {
	s := NewSigner("", "reset-secret")
	_, err := s.Sign(uuid.New(), "a@example.com", ScopeVerify, VerifyTTL)
	assert.Error(t, err)
}
