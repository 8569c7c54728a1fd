package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/travelmint/controllers/auth_controller"
)

func RegisterAuthRoutes(router *gin.RouterGroup, ac *auth_controller.AuthController, g Guards) {
	router.POST("/signup", g.Limits.CombinedRateLimiter("signup", "10-2m", "30-60m"), ac.Signup)
	router.POST("/login", g.Limits.CombinedRateLimiter("login", "10-2m", "30-30m"), ac.Login)
	router.GET("/logout", g.Limits.NewRateLimiter("20-1m", "logout"), ac.Logout)

	router.GET("/verify-email", g.Limits.CombinedRateLimiter("verify-email", "5-1m", "20-10m"), ac.VerifyEmail)
	router.POST("/forgot-password", g.Limits.CombinedRateLimiter("forgot-password", "5-1m", "20-10m"), ac.ForgotPassword)
	router.POST("/reset-password", g.Limits.CombinedRateLimiter("reset-password", "5-1m", "20-10m"), ac.ResetPassword)
}
