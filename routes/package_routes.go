package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/travelmint/controllers/package_controller"
	"github.com/joy095/travelmint/controllers/payment_controller"
)

func RegisterPackageRoutes(router *gin.RouterGroup, pc *package_controller.PackageController, payments *payment_controller.PaymentController, g Guards) {
	// Public catalog
	router.GET("/get-packages", g.Limits.NewRateLimiter("60-1m", "get-packages"), pc.GetPackages)
	router.GET("/get-package-data/:id", g.Limits.NewRateLimiter("60-1m", "get-package-data"), pc.GetPackageData)

	// Older clients fetch the gateway key and create orders here.
	router.GET("/razorpay/key", payments.GetKey)
	router.POST("/razorpay/create-order", append(g.signedIn(), g.Limits.CombinedRateLimiter("create-order", "5-1m", "30-60m"), payments.CreateOrder)...)

	admin := router.Group("/")
	admin.Use(g.admin()...)
	{
		admin.POST("/create-package", pc.CreatePackage)
		admin.POST("/update-package/:id", pc.UpdatePackage)
		admin.DELETE("/delete-package/:id", pc.DeletePackage)
	}
}
