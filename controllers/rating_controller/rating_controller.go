package rating_controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/badwords"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/rating_models"
	"github.com/joy095/travelmint/utils"
)

type Ratings interface {
	Give(ctx context.Context, r *rating_models.Rating) error
	Latest(ctx context.Context, packageID uuid.UUID, limit int) ([]rating_models.Rating, error)
	AverageFor(ctx context.Context, packageID uuid.UUID) (*rating_models.Average, error)
}

type RatingController struct {
	ratings Ratings
}

func NewRatingController(ratings Ratings) *RatingController {
	return &RatingController{ratings: ratings}
}

type giveRatingRequest struct {
	PackageID string `json:"packageId" binding:"required"`
	Rating    int    `json:"rating"`
	Review    string `json:"review"`
}

// GiveRating records the caller's rating for a package they have booked.
func (rc *RatingController) GiveRating(c *gin.Context) {
	user, err := utils.CurrentUser(c)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req giveRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Package and rating are required")
		return
	}
	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid package id")
		return
	}
	if badwords.ContainsBadWords(req.Review) {
		utils.Fail(c, http.StatusBadRequest, "Review contains inappropriate language")
		return
	}

	rating := &rating_models.Rating{
		PackageID:  packageID,
		UserID:     user.ID,
		Username:   user.Username,
		UserAvatar: user.Avatar,
		Rating:     req.Rating,
		Review:     req.Review,
	}
	err = rc.ratings.Give(c.Request.Context(), rating)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Thanks for your feedback!", "rating": rating})
	case errors.Is(err, rating_models.ErrInvalidRating):
		utils.Fail(c, http.StatusBadRequest, "Rating must be between 1 and 5")
	case errors.Is(err, rating_models.ErrNotBooked):
		utils.Fail(c, http.StatusForbidden, "Only travellers who booked this package can rate it")
	case errors.Is(err, rating_models.ErrAlreadyRated):
		utils.Fail(c, http.StatusConflict, "You have already rated this package")
	default:
		logger.ErrorLogger.Errorf("Failed to save rating of %s for %s: %v", user.ID, packageID, err)
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
	}
}

// GetRatings returns the latest ratings. A limit of "all" or 0 returns every rating.
func (rc *RatingController) GetRatings(c *gin.Context) {
	packageID, ok := utils.ParseUUIDParam(c, "packageId")
	if !ok {
		utils.Fail(c, http.StatusBadRequest, "Invalid package id")
		return
	}
	limit := 0
	if raw := c.Param("limit"); raw != "all" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.Fail(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	ratings, err := rc.ratings.Latest(c.Request.Context(), packageID, limit)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list ratings for %s: %v", packageID, err)
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	c.JSON(http.StatusOK, ratings)
}

func (rc *RatingController) AverageRating(c *gin.Context) {
	packageID, ok := utils.ParseUUIDParam(c, "packageId")
	if !ok {
		utils.Fail(c, http.StatusBadRequest, "Invalid package id")
		return
	}
	avg, err := rc.ratings.AverageFor(c.Request.Context(), packageID)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to average ratings for %s: %v", packageID, err)
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	c.JSON(http.StatusOK, avg)
}
