package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/travelmint/controllers/auth_controller"
	"github.com/joy095/travelmint/controllers/booking_controller"
	"github.com/joy095/travelmint/controllers/package_controller"
	"github.com/joy095/travelmint/controllers/payment_controller"
	"github.com/joy095/travelmint/controllers/rating_controller"
	"github.com/joy095/travelmint/controllers/user_controllers"
	middleware "github.com/joy095/travelmint/middlewares"
	"github.com/joy095/travelmint/middlewares/auth"
)

// Guards bundles the middleware shared by every route group.
type Guards struct {
	Auth   *auth.Middleware
	Limits *middleware.RateLimiters
}

// signedIn is the chain for routes that need a verified account.
func (g Guards) signedIn() []gin.HandlerFunc {
	return []gin.HandlerFunc{g.Auth.RequireSignIn(), g.Auth.EnsureVerified()}
}

func (g Guards) admin() []gin.HandlerFunc {
	return append(g.signedIn(), g.Auth.IsAdmin())
}

type Controllers struct {
	Auth     *auth_controller.AuthController
	Users    *user_controllers.UserController
	Packages *package_controller.PackageController
	Bookings *booking_controller.BookingController
	Payments *payment_controller.PaymentController
	Ratings  *rating_controller.RatingController
}

// RegisterRoutes mounts every API group under /api.
func RegisterRoutes(r *gin.Engine, ctrl Controllers, g Guards) {
	// The webhook reads its own raw body and is authenticated by signature.
	r.POST("/api/webhooks/razorpay", g.Limits.NewRateLimiter("300-1m", "razorpay-webhook"), ctrl.Payments.RazorpayWebhook)

	api := r.Group("/api")
	RegisterAuthRoutes(api.Group("/auth"), ctrl.Auth, g)
	RegisterUserRoutes(api.Group("/user"), ctrl.Users, g)
	RegisterPackageRoutes(api.Group("/package"), ctrl.Packages, ctrl.Payments, g)
	RegisterPaymentRoutes(api.Group("/payment"), ctrl.Payments, g)
	RegisterBookingRoutes(api.Group("/booking"), ctrl.Bookings, g)
	RegisterRatingRoutes(api.Group("/rating"), ctrl.Ratings, g)
}
