package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/travelmint/controllers/rating_controller"
)

func RegisterRatingRoutes(router *gin.RouterGroup, rc *rating_controller.RatingController, g Guards) {
	router.POST("/give-rating", append(g.signedIn(), g.Limits.NewRateLimiter("5-1m", "give-rating"), rc.GiveRating)...)
	router.GET("/get-ratings/:packageId/:limit", rc.GetRatings)
	router.GET("/average-rating/:packageId", rc.AverageRating)
}
