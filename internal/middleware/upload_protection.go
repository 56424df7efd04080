package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"sitebuilder-backend/internal/constants"
)

const uploadCacheControl = "public, max-age=3600"

// UploadsProtection serves block images only. Anything else under the upload
// directory, dot files included, looks like a missing file.
func UploadsProtection() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isPublicUpload(c.Param("filepath")) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Cache-Control", uploadCacheControl)
		c.Next()
	}
}

func isPublicUpload(raw string) bool {
	name := path.Base(strings.ToLower(strings.TrimSpace(raw)))
	if name == "" || name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return false
	}
	_, ok := constants.ImageMediaType(path.Ext(name))
	return ok
}
