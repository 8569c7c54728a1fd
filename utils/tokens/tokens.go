// Package tokens issues the single-purpose links sent by email.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Scope string

const (
	ScopeVerify Scope = "verify"
	ScopeReset  Scope = "reset"

	VerifyTTL = 30 * time.Minute
	ResetTTL  = 20 * time.Minute
)

var ErrInvalidToken = errors.New("invalid or expired token")

type ScopedClaims struct {
	UserID string `json:"_id"`
	Email  string `json:"email"`
	Scope  Scope  `json:"scope"`
	jwt.RegisteredClaims
}

// Signer keeps one secret per scope so a reset token can never verify an email.
type Signer struct {
	secrets map[Scope][]byte
}

func NewSigner(emailSecret, resetSecret string) *Signer {
	return &Signer{secrets: map[Scope][]byte{
		ScopeVerify: []byte(emailSecret),
		ScopeReset:  []byte(resetSecret),
	}}
}

func (s *Signer) Sign(userID uuid.UUID, email string, scope Scope, ttl time.Duration) (string, error) {
	secret, ok := s.secrets[scope]
	if !ok || len(secret) == 0 {
		return "", fmt.Errorf("no secret configured for scope %q", scope)
	}
	now := time.Now()
	claims := ScopedClaims{
		UserID: userID.String(),
		Email:  email,
		Scope:  scope,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses a token and insists it was issued for scope.
func (s *Signer) Verify(tokenString string, scope Scope) (*ScopedClaims, error) {
	secret, ok := s.secrets[scope]
	if !ok || tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &ScopedClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Scope != scope {
		return nil, fmt.Errorf("%w: scope %q", ErrInvalidToken, claims.Scope)
	}
	return claims, nil
}

// UserUUID parses the subject of a verified token.
func (c *ScopedClaims) UserUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
