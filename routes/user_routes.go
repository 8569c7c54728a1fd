package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/travelmint/controllers/user_controllers"
)

func RegisterUserRoutes(router *gin.RouterGroup, uc *user_controllers.UserController, g Guards) {
	protected := router.Group("/")
	protected.Use(g.signedIn()...)
	{
		protected.GET("/user-auth", g.Limits.NewRateLimiter("30-1m", "user-auth"), uc.AuthCheck)
		protected.POST("/update/:id", g.Limits.CombinedRateLimiter("update-profile", "5-1m", "10-5m"), uc.UpdateUser)
		protected.POST("/update-profile-photo/:id", g.Limits.CombinedRateLimiter("update-profile-photo", "3-1m", "10-60m"), uc.UpdateProfilePhoto)
		protected.POST("/update-password/:id", g.Limits.CombinedRateLimiter("update-password", "5-1m", "20-10m"), uc.UpdatePassword)
		protected.DELETE("/delete/:id", g.Limits.NewRateLimiter("5-10m", "delete-account"), uc.DeleteAccount)
	}

	admin := router.Group("/")
	admin.Use(g.admin()...)
	{
		admin.GET("/admin-auth", uc.AuthCheck)
		admin.GET("/getAllUsers", uc.GetAllUsers)
		admin.DELETE("/delete-user/:id", uc.DeleteUserAdmin)
	}
}
