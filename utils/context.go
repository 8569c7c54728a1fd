package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/user_models"
)

// Context keys set by the auth middleware.
const (
	ContextUserIDKey = "sub"
	ContextUserKey   = "authenticated_user"
)

// GetUserIDFromContext returns the id of the signed-in user.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		logger.ErrorLogger.Error("User ID not found in context.")
		return uuid.Nil, ErrUserIDNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		logger.ErrorLogger.Errorf("User ID in context has unexpected type %T", raw)
		return uuid.Nil, ErrUserIDNotFound
	}
	return userID, nil
}

// CurrentUser returns the user loaded by the auth middleware.
func CurrentUser(c *gin.Context) (*user_models.User, error) {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, ErrUserIDNotFound
	}
	user, ok := raw.(*user_models.User)
	if !ok || user == nil {
		return nil, ErrUserIDNotFound
	}
	return user, nil
}

// CanActFor reports whether the signed-in user may act on targetID's data.
func CanActFor(user *user_models.User, targetID uuid.UUID) bool {
	return user.ID == targetID || user.IsAdmin()
}
