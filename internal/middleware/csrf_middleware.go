package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"sitebuilder-backend/internal/constants"

	"github.com/gin-gonic/gin"
)

const csrfHeaderName = "X-CSRF-Token"

var (
	errCSRFCookieMissing = errors.New("missing CSRF token")
	errCSRFHeaderMissing = errors.New("missing CSRF header")
	errCSRFMismatch      = errors.New("invalid CSRF token")
)

// CSRFMiddleware applies a double-submit check to editor mutations that
// authenticate with the session cookie. Bearer clients and the listed route
// patterns are not checked.
func CSRFMiddleware(exempt ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(exempt))
	for _, route := range exempt {
		skip[route] = struct{}{}
	}

	return func(c *gin.Context) {
		if !needsCSRFCheck(c, skip) {
			c.Next()
			return
		}
		if err := verifyCSRF(c.Request); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func needsCSRFCheck(c *gin.Context, skip map[string]struct{}) bool {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}

	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	if _, ok := skip[route]; ok {
		return false
	}

	if strings.TrimSpace(c.GetHeader("Authorization")) != "" {
		return false
	}
	session, err := c.Cookie(constants.AuthTokenCookieName)
	return err == nil && strings.TrimSpace(session) != ""
}

func verifyCSRF(r *http.Request) error {
	cookie, err := r.Cookie(constants.CSRFTokenCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return errCSRFCookieMissing
	}
	header := strings.TrimSpace(r.Header.Get(csrfHeaderName))
	if header == "" {
		return errCSRFHeaderMissing
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(cookie.Value)), []byte(header)) != 1 {
		return errCSRFMismatch
	}
	return nil
}
