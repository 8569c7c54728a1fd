package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/user_models"
	"github.com/joy095/travelmint/utils"
	"github.com/joy095/travelmint/utils/jwt_parse"
)

// UserFinder loads the account behind a token.
type UserFinder interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user_models.User, error)
}

// Middleware guards routes with the access token issued at login.
type Middleware struct {
	users  UserFinder
	secret []byte
}

func NewMiddleware(users UserFinder, accessSecret string) *Middleware {
	return &Middleware{users: users, secret: []byte(accessSecret)}
}

// RequireSignIn checks the access token and its version against the stored
// user, then puts the user id and the user into the gin context.
func (m *Middleware) RequireSignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := jwt_parse.TokenFromRequest(c)
		if err != nil {
			utils.AbortFail(c, http.StatusUnauthorized, "Unauthorized: please sign in.")
			return
		}

		claims, err := jwt_parse.ParseAccessToken(raw, m.secret)
		if err != nil {
			logger.WarnLogger.Warnf("Rejected access token: %v", err)
			utils.AbortFail(c, http.StatusUnauthorized, "Unauthorized: invalid or expired token.")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			utils.AbortFail(c, http.StatusUnauthorized, "Unauthorized: invalid token subject.")
			return
		}

		user, err := m.users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, user_models.ErrUserNotFound) {
				utils.AbortFail(c, http.StatusUnauthorized, "User associated with token not found.")
				return
			}
			logger.ErrorLogger.Errorf("Failed to load user %s for auth: %v", userID, err)
			utils.AbortFail(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		if claims.TokenVersion != user.TokenVersion {
			logger.WarnLogger.Warnf("Token version mismatch for user %s: jwt=%d db=%d", user.ID, claims.TokenVersion, user.TokenVersion)
			utils.AbortFail(c, http.StatusUnauthorized, "Session expired. Please log in again.")
			return
		}

		c.Set(utils.ContextUserIDKey, user.ID)
		c.Set(utils.ContextUserKey, user)
		c.Next()
	}
}

// EnsureVerified must run after RequireSignIn.
func (m *Middleware) EnsureVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := utils.CurrentUser(c)
		if err != nil {
			utils.AbortFail(c, http.StatusUnauthorized, "Unauthorized: please sign in.")
			return
		}
		if !user.IsVerified {
			utils.AbortFail(c, http.StatusForbidden, "Email not verified. Please verify to use this service.")
			return
		}
		c.Next()
	}
}

// IsAdmin must run after RequireSignIn.
func (m *Middleware) IsAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := utils.CurrentUser(c)
		if err != nil {
			utils.AbortFail(c, http.StatusUnauthorized, "Unauthorized: please sign in.")
			return
		}
		if !user.IsAdmin() {
			utils.AbortFail(c, http.StatusForbidden, "Forbidden: admin access required.")
			return
		}
		c.Next()
	}
}
