package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimit describes how many requests a client may send per window.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

var rateLimitBypassPrefixes = []string{"/static/", "/uploads/", "/preview/assets/", "/assets/"}

// RateLimitMiddleware limits requests within scope. Authenticated callers are
// keyed by account so an editor behind a shared address keeps their own
// budget; everyone else is keyed by client IP.
func RateLimitMiddleware(manager *RateLimitManager, scope string, limit RateLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil || shouldBypassRateLimit(c.Request) {
			c.Next()
			return
		}

		limiter := manager.Limiter(scope, rateLimitKey(c), limit)
		if limiter == nil {
			c.Next()
			return
		}

		reservation := limiter.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

func shouldBypassRateLimit(r *http.Request) bool {
	if r == nil || r.URL == nil {
		return false
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	p := r.URL.Path
	for _, prefix := range rateLimitBypassPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}

	switch p {
	case "/favicon.ico", "/health", "/metrics":
		return true
	}
	return false
}
