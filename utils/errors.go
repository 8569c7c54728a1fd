package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
)

var (
	ErrUserIDNotFound = errors.New("authentication required: user ID not found")
	ErrUnauthorized   = errors.New("unauthorized access")
)

// Fail writes the {success:false, message} envelope every handler uses.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// AbortFail is Fail for middlewares.
func AbortFail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
