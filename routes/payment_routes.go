package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/travelmint/controllers/payment_controller"
)

func RegisterPaymentRoutes(router *gin.RouterGroup, pc *payment_controller.PaymentController, g Guards) {
	router.GET("/razorpay/key", pc.GetKey)

	protected := router.Group("/")
	protected.Use(g.signedIn()...)
	{
		protected.POST("/create-order", g.Limits.CombinedRateLimiter("create-order", "5-1m", "30-60m"), pc.CreateOrder)
		protected.GET("/order/:orderId", g.Limits.NewRateLimiter("30-1m", "order-status"), pc.GetOrderStatus)
		protected.GET("/my-orders", g.Limits.NewRateLimiter("30-1m", "my-orders"), pc.MyOrders)
	}

	admin := router.Group("/")
	admin.Use(g.admin()...)
	{
		admin.GET("/all-orders", pc.AllOrders)
	}
}
