package jwt_parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joy095/travelmint/models/shared_models"
)

// AccessTokenCookie carries the session for browser clients.
const AccessTokenCookie = "X_TTMS_access_token"

var (
	ErrNoToken      = errors.New("no authorization token")
	ErrInvalidToken = errors.New("invalid token")
)

// TokenFromRequest reads the access token from the session cookie, falling
// back to an "Authorization: Bearer" header.
func TokenFromRequest(c *gin.Context) (string, error) {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrNoToken
	}
	if len(authHeader) > 7 && strings.ToLower(authHeader[:7]) == "bearer " {
		return strings.TrimSpace(authHeader[7:]), nil
	}
	return "", fmt.Errorf("%w: invalid authorization format", ErrInvalidToken)
}

// ParseAccessToken validates signature, expiry and token type.
func ParseAccessToken(tokenString string, secret []byte) (*shared_models.Claims, error) {
	claims := &shared_models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Type != "access" || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
