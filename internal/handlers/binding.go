package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebuilder-backend/pkg/validator"
)

// bindJSON decodes the request body into dst. On failure it writes a 400
// listing the offending fields and reports false.
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	if fields := validator.FieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fields})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
	return false
}
