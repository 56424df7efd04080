package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/service"
	"sitebuilder-backend/pkg/logger"
)

const csrfTokenBytes = 32

// AuthHandler signs editors in. The session lives in an http-only cookie
// paired with a readable CSRF cookie the editor echoes back in a header.
type AuthHandler struct {
	authService service.AuthUseCase
}

func NewAuthHandler(authService service.AuthUseCase) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges credentials for a session.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, account, err := h.authService.Login(req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		logger.FromContext(c.Request.Context()).WithError(err).Error("Editor login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	csrfToken, err := newCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate CSRF token"})
		return
	}

	writeSessionCookies(c, token, csrfToken, h.authService.TokenTTL())
	c.JSON(http.StatusOK, models.AuthResponse{
		Token:     token,
		Account:   *account,
		CSRFToken: csrfToken,
	})
}

// Logout drops the session cookies.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	writeSessionCookies(c, "", "", -1)
	c.Status(http.StatusNoContent)
}

// Me reports the account behind the current token.
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, models.EditorAccount{
		Email: c.GetString("user_id"),
		Role:  c.GetString("role"),
	})
}

// writeSessionCookies sets both cookies with SameSite=Strict so the preview
// iframe and socket carry them only on same-site requests. A negative ttl
// expires them.
func writeSessionCookies(c *gin.Context, token, csrfToken string, ttl time.Duration) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl.Seconds())
	}
	secure := c.Request.TLS != nil

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(constants.AuthTokenCookieName, token, maxAge, "/", "", secure, true)
	c.SetCookie(constants.CSRFTokenCookieName, csrfToken, maxAge, "/", "", secure, false)
}

func newCSRFToken() (string, error) {
	token := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(token), nil
}
