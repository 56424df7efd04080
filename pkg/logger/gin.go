package logger

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// quietPrefixes are asset and probe routes logged at debug level only; the
// editor iframe pulls them on every reload.
var quietPrefixes = []string{"/static/", "/uploads/", "/preview/assets/", "/health", "/metrics"}

// GinLogger writes one line per request using the request scoped logger, so
// request ids attached earlier in the chain show up on every line.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		entry := FromContext(c.Request.Context()).WithFields(logrus.Fields{
			"ip":     c.ClientIP(),
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"route":  route,
			"status": status,
			"took":   time.Since(start),
		})
		if user := c.GetString("user_id"); user != "" {
			entry = entry.WithField("user", user)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("Server error")
		case status >= 400:
			entry.Warn("Client error")
		case isQuiet(c.Request.URL.Path):
			entry.Debug("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

func isQuiet(path string) bool {
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
