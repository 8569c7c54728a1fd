package auth_controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/badwords"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/shared_models"
	"github.com/joy095/travelmint/models/user_models"
	"github.com/joy095/travelmint/utils"
	"github.com/joy095/travelmint/utils/jwt_parse"
	"github.com/joy095/travelmint/utils/tokens"
)

const mailTimeout = 20 * time.Second

// AccountMailer is implemented by mail.Notifier.
type AccountMailer interface {
	VerifyEmail(ctx context.Context, to, name, link string) error
	ResetPassword(ctx context.Context, to, name, link string, validFor time.Duration) error
}

// AuthController handles sign up, sign in and the email-link flows.
type AuthController struct {
	db           shared_models.DBTX
	mailer       AccountMailer
	signer       *tokens.Signer
	accessSecret []byte
	baseURL      string
	secureCookie bool
}

func NewAuthController(db shared_models.DBTX, mailer AccountMailer, signer *tokens.Signer, accessSecret, baseURL string) *AuthController {
	return &AuthController{
		db:           db,
		mailer:       mailer,
		signer:       signer,
		accessSecret: []byte(accessSecret),
		baseURL:      strings.TrimRight(baseURL, "/"),
		secureCookie: strings.HasPrefix(baseURL, "https://"),
	}
}

func (ac *AuthController) link(path, token string) string {
	return fmt.Sprintf("%s/%s?token=%s", ac.baseURL, path, url.QueryEscape(token))
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// Signup creates an unverified account and mails the verification link. The
// account is removed again when the mail cannot be sent.
func (ac *AuthController) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" ||
		strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.Phone) == "" {
		utils.Fail(c, http.StatusBadRequest, "All fields are required!")
		return
	}
	if badwords.AnyContainsBadWords(req.Username, req.Address) {
		utils.Fail(c, http.StatusBadRequest, "Username or address contains inappropriate language")
		return
	}

	if ac.mailer == nil || ac.signer == nil || ac.baseURL == "" {
		logger.ErrorLogger.Error("Signup rejected: email verification settings missing")
		utils.Fail(c, http.StatusInternalServerError, "Server misconfigured: email verification settings missing. Contact admin.")
		return
	}

	user, err := user_models.NewUser(req.Username, req.Email, req.Password, req.Address, req.Phone)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to build user: %v", err)
		utils.Fail(c, http.StatusInternalServerError, "Error in server!")
		return
	}

	ctx := c.Request.Context()
	if err := user_models.CreateUser(ctx, ac.db, user); err != nil {
		if errors.Is(err, user_models.ErrEmailTaken) {
			utils.Fail(c, http.StatusConflict, "User already exists please login")
			return
		}
		utils.Fail(c, http.StatusInternalServerError, "Error in server!")
		return
	}

	if err := ac.sendVerification(ctx, user); err != nil {
		logger.ErrorLogger.Errorf("Signup mail to %s failed, removing user %s: %v", user.Email, user.ID, err)
		if delErr := user_models.DeleteUser(context.WithoutCancel(ctx), ac.db, user.ID); delErr != nil {
			logger.ErrorLogger.Errorf("Failed to remove user %s after mail failure: %v", user.ID, delErr)
		}
		utils.Fail(c, http.StatusInternalServerError, "We couldn't send the verification email. Please try again later.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created. Check your email to verify your account.",
	})
}

func (ac *AuthController) sendVerification(ctx context.Context, user *user_models.User) error {
	token, err := ac.signer.Sign(user.ID, user.Email, tokens.ScopeVerify, tokens.VerifyTTL)
	if err != nil {
		return err
	}
	mctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	return ac.mailer.VerifyEmail(mctx, user.Email, user.DisplayName(), ac.link("verify-email", token))
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the credentials of a verified user and sets the session cookie.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.Fail(c, http.StatusBadRequest, "All fields are required!")
		return
	}

	user, err := user_models.GetUserByEmail(c.Request.Context(), ac.db, req.Email)
	if err != nil {
		if errors.Is(err, user_models.ErrUserNotFound) {
			utils.Fail(c, http.StatusNotFound, "User not found!")
			return
		}
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if !user.IsVerified {
		utils.Fail(c, http.StatusForbidden, "Please verify your email before logging in.")
		return
	}

	ok, err := user_models.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		utils.Fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := shared_models.GenerateAccessToken(ac.accessSecret, user.ID, user.TokenVersion, shared_models.ACCESS_TOKEN_EXPIRY)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to issue access token for %s: %v", user.ID, err)
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	shared_models.SetJWTCookie(c, jwt_parse.AccessTokenCookie, token, shared_models.ACCESS_TOKEN_EXPIRY, ac.secureCookie)
	logger.InfoLogger.Infof("User %s logged in successfully", user.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login Success", "user": user})
}

// Logout clears the cookie. A valid token also has its version bumped so
// copies of it stop working.
func (ac *AuthController) Logout(c *gin.Context) {
	if raw, err := jwt_parse.TokenFromRequest(c); err == nil {
		if claims, err := jwt_parse.ParseAccessToken(raw, ac.accessSecret); err == nil {
			if id, err := uuid.Parse(claims.UserID); err == nil {
				if err := user_models.IncrementTokenVersion(c.Request.Context(), ac.db, id); err != nil {
					logger.WarnLogger.Warnf("Logout could not revoke tokens of %s: %v", id, err)
				}
			}
		}
	}

	shared_models.RemoveJWTCookie(c, jwt_parse.AccessTokenCookie, ac.secureCookie)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// VerifyEmail consumes the link sent at sign up.
func (ac *AuthController) VerifyEmail(c *gin.Context) {
	claims, err := ac.signer.Verify(c.Query("token"), tokens.ScopeVerify)
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	id, err := claims.UserUUID()
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	if err := user_models.MarkVerified(c.Request.Context(), ac.db, id); err != nil {
		if errors.Is(err, user_models.ErrUserNotFound) {
			utils.Fail(c, http.StatusBadRequest, "User not found")
			return
		}
		utils.Fail(c, http.StatusInternalServerError, "Could not verify email")
		return
	}

	logger.InfoLogger.Infof("User %s verified their email", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email verified. You can log in now."})
}

const forgotPasswordReply = "If that email exists, you'll receive a link."

// ForgotPassword always answers the same way so accounts cannot be probed.
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		utils.Fail(c, http.StatusBadRequest, "Email is required")
		return
	}

	ctx := c.Request.Context()
	user, err := user_models.GetUserByEmail(ctx, ac.db, req.Email)
	if err != nil {
		if errors.Is(err, user_models.ErrUserNotFound) {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": forgotPasswordReply})
			return
		}
		utils.Fail(c, http.StatusInternalServerError, "Could not send reset link")
		return
	}

	token, err := ac.signer.Sign(user.ID, user.Email, tokens.ScopeReset, tokens.ResetTTL)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to sign reset token: %v", err)
		utils.Fail(c, http.StatusInternalServerError, "Could not send reset link")
		return
	}

	mctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	if err := ac.mailer.ResetPassword(mctx, user.Email, user.DisplayName(), ac.link("reset-password", token), tokens.ResetTTL); err != nil {
		logger.ErrorLogger.Errorf("Reset mail to user %s failed: %v", user.ID, err)
		utils.Fail(c, http.StatusInternalServerError, "Could not send reset link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": forgotPasswordReply})
}

// ResetPassword sets a new password from a reset link and ends every session.
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.NewPassword == "" {
		utils.Fail(c, http.StatusBadRequest, "Token and new password are required")
		return
	}

	claims, err := ac.signer.Verify(req.Token, tokens.ScopeReset)
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	id, err := claims.UserUUID()
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	if err := user_models.UpdatePassword(c.Request.Context(), ac.db, id, req.NewPassword); err != nil {
		if errors.Is(err, user_models.ErrUserNotFound) {
			utils.Fail(c, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		utils.Fail(c, http.StatusInternalServerError, "Could not update password")
		return
	}

	logger.InfoLogger.Infof("Password reset for user %s", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}
