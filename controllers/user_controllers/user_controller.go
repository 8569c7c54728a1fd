package user_controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/badwords"
	"github.com/joy095/travelmint/clients"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/shared_models"
	"github.com/joy095/travelmint/models/user_models"
	"github.com/joy095/travelmint/utils"
	"github.com/joy095/travelmint/utils/jwt_parse"
)

const avatarFolder = "avatars"

// UserController handles user-related requests
type UserController struct {
	db           shared_models.DBTX
	images       clients.ImageStore
	secureCookie bool
}

// NewUserController creates a new UserController. images may be nil when no
// bucket is configured.
func NewUserController(db shared_models.DBTX, images clients.ImageStore, secureCookie bool) *UserController {
	return &UserController{db: db, images: images, secureCookie: secureCookie}
}

// AuthCheck lets the client confirm a guarded route group accepts it.
func (uc *UserController) AuthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"check": true})
}

// targetUser resolves :id and checks the caller may act on it.
func (uc *UserController) targetUser(c *gin.Context) (uuid.UUID, bool) {
	current, err := utils.CurrentUser(c)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.Fail(c, http.StatusBadRequest, "Invalid user id")
		return uuid.Nil, false
	}
	if !utils.CanActFor(current, id) {
		utils.Fail(c, http.StatusUnauthorized, "You can only update your own account please login again!")
		return uuid.Nil, false
	}
	return id, true
}

// UpdateUser changes username, address and phone. Empty fields keep their value.
func (uc *UserController) UpdateUser(c *gin.Context) {
	id, ok := uc.targetUser(c)
	if !ok {
		return
	}

	var req struct {
		Username string `json:"username"`
		Address  string `json:"address"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if badwords.AnyContainsBadWords(req.Username, req.Address) {
		utils.Fail(c, http.StatusBadRequest, "Username or address contains inappropriate language")
		return
	}

	ctx := c.Request.Context()
	existing, err := user_models.GetUserByID(ctx, uc.db, id)
	if err != nil {
		if errors.Is(err, user_models.ErrUserNotFound) {
			utils.Fail(c, http.StatusNotFound, "User not found")
			return
		}
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}

	updated, err := user_models.UpdateProfile(ctx, uc.db, id,
		keep(req.Username, existing.Username), keep(req.Address, existing.Address), keep(req.Phone, existing.Phone))
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to update profile of %s: %v", id, err)
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}

	logger.InfoLogger.Infof("User profile update completed for ID: %s", id)
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User Details Updated Successfully", "user": updated})
}

func keep(value, current string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return current
}

// UpdateProfilePhoto uploads the multipart "photo" and stores its URL.
func (uc *UserController) UpdateProfilePhoto(c *gin.Context) {
	id, ok := uc.targetUser(c)
	if !ok {
		return
	}
	if uc.images == nil {
		utils.Fail(c, http.StatusServiceUnavailable, "Photo uploads are not available")
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Photo is required")
		return
	}

	ctx := c.Request.Context()
	photoURL, err := uc.images.UploadImage(ctx, file, avatarFolder)
	if err != nil {
		switch {
		case errors.Is(err, clients.ErrStorageDisabled):
			utils.Fail(c, http.StatusServiceUnavailable, "Photo uploads are not available")
		case errors.Is(err, clients.ErrUnsupportedImage):
			utils.Fail(c, http.StatusBadRequest, "Only images up to 5 MB are allowed")
		default:
			logger.ErrorLogger.Errorf("Avatar upload for %s failed: %v", id, err)
			utils.Fail(c, http.StatusInternalServerError, "Could not upload photo")
		}
		return
	}

	if err := user_models.UpdateAvatar(ctx, uc.db, id, photoURL); err != nil {
		utils.Fail(c, http.StatusInternalServerError, "Could not update photo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile photo updated", "avatar": photoURL})
}

// UpdatePassword changes the password after checking the old one. Every
// session, including the current one, ends.
func (uc *UserController) UpdatePassword(c *gin.Context) {
	id, ok := uc.targetUser(c)
	if !ok {
		return
	}

	var req struct {
		OldPassword string `json:"oldpassword"`
		NewPassword string `json:"newpassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		utils.Fail(c, http.StatusBadRequest, "Old and new password are required")
		return
	}

	ctx := c.Request.Context()
	user, err := user_models.GetUserByID(ctx, uc.db, id)
	if err != nil {
		utils.Fail(c, http.StatusNotFound, "User not found")
		return
	}
	if valid, err := user_models.VerifyPassword(req.OldPassword, user.PasswordHash); err != nil || !valid {
		utils.Fail(c, http.StatusBadRequest, "Old password is incorrect")
		return
	}
	if req.OldPassword == req.NewPassword {
		utils.Fail(c, http.StatusBadRequest, "New password can't be same as old password!")
		return
	}

	if err := user_models.UpdatePassword(ctx, uc.db, id, req.NewPassword); err != nil {
		utils.Fail(c, http.StatusInternalServerError, "Could not update password")
		return
	}

	shared_models.RemoveJWTCookie(c, jwt_parse.AccessTokenCookie, uc.secureCookie)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated. Please log in again."})
}

// DeleteAccount removes the caller's own account.
func (uc *UserController) DeleteAccount(c *gin.Context) {
	current, err := utils.CurrentUser(c)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok || id != current.ID {
		utils.Fail(c, http.StatusUnauthorized, "You can only delete your account!")
		return
	}
	if !uc.deleteUser(c, id) {
		return
	}
	shared_models.RemoveJWTCookie(c, jwt_parse.AccessTokenCookie, uc.secureCookie)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account deleted successfully!"})
}

// DeleteUserAdmin removes any user account.
func (uc *UserController) DeleteUserAdmin(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.Fail(c, http.StatusBadRequest, "Invalid user id")
		return
	}
	if !uc.deleteUser(c, id) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully!"})
}

func (uc *UserController) deleteUser(c *gin.Context, id uuid.UUID) bool {
	err := user_models.DeleteUser(c.Request.Context(), uc.db, id)
	switch {
	case err == nil:
		logger.InfoLogger.Infof("User %s deleted", id)
		return true
	case errors.Is(err, user_models.ErrUserNotFound):
		utils.Fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, user_models.ErrUserHasHistory):
		utils.Fail(c, http.StatusConflict, "Users with bookings or payments cannot be deleted")
	default:
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
	}
	return false
}

// GetAllUsers lists regular users for admins, filtered by ?searchTerm.
func (uc *UserController) GetAllUsers(c *gin.Context) {
	users, err := user_models.ListUsers(c.Request.Context(), uc.db, strings.TrimSpace(c.Query("searchTerm")))
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list users: %v", err)
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	c.JSON(http.StatusOK, users)
}
