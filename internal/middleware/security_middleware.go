package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware sets the default security headers. Responses may
// only be framed by the site itself, which the editor's preview iframe needs.
func SecurityHeadersMiddleware(connectSources []string) gin.HandlerFunc {
	policy := buildContentSecurityPolicy(connectSources)
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Header("X-DNS-Prefetch-Control", "off")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		c.Header("Cross-Origin-Resource-Policy", "same-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("Content-Security-Policy", policy)
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Next()
	}
}

func buildContentSecurityPolicy(connectSources []string) string {
	connect := []string{"'self'", "ws:", "wss:"}
	for _, source := range connectSources {
		if trimmed := strings.TrimSpace(source); trimmed != "" && trimmed != "*" {
			connect = append(connect, trimmed)
		}
	}

	directives := []string{
		"default-src 'self'",
		"img-src 'self' data: blob: https:",
		"media-src 'self' data: blob:",
		"style-src 'self' 'unsafe-inline'",
		"script-src 'self'",
		"connect-src " + strings.Join(connect, " "),
		"object-src 'none'",
		"base-uri 'self'",
		"frame-ancestors 'self'",
	}
	return strings.Join(directives, "; ")
}
