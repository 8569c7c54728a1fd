package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/travelmint/controllers/booking_controller"
)

func RegisterBookingRoutes(router *gin.RouterGroup, bc *booking_controller.BookingController, g Guards) {
	protected := router.Group("/")
	protected.Use(g.signedIn()...)
	{
		protected.POST("/intent", g.Limits.CombinedRateLimiter("booking-intent", "10-1m", "60-60m"), bc.CreateIntent)
		protected.GET("/get-UserCurrentBookings/:id", bc.GetUserCurrentBookings)
		protected.GET("/get-allUserBookings/:id", bc.GetAllUserBookings)
		protected.DELETE("/delete-booking-history/:id/:userId", g.Limits.NewRateLimiter("10-1m", "delete-booking-history"), bc.DeleteBookingHistory)
		protected.POST("/cancel-booking/:id/:userId", g.Limits.NewRateLimiter("5-1m", "cancel-booking"), bc.CancelBooking)
	}

	admin := router.Group("/")
	admin.Use(g.admin()...)
	{
		admin.GET("/get-currentBookings", bc.GetCurrentBookings)
		admin.GET("/get-allBookings", bc.GetAllBookings)
	}
}
