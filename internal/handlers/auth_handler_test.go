package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/middleware"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/service"
)

func TestAuthHandlerLoginSetsCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	authService := service.NewAuthService([]models.EditorAccount{{
		Email:        "writer@example.com",
		Role:         constants.RoleEditor,
		PasswordHash: string(hash),
	}}, "test-secret")
	handler := NewAuthHandler(authService)

	router := gin.New()
	router.POST("/api/auth/login", handler.Login)
	router.GET("/api/auth/me", middleware.AuthMiddleware("test-secret"), handler.Me)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "valid", body: `{"email":"writer@example.com","password":"secret"}`, status: http.StatusOK},
		{name: "wrong password", body: `{"email":"writer@example.com","password":"nope"}`, status: http.StatusUnauthorized},
		{name: "invalid email", body: `{"email":"writer","password":"secret"}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}

			var authCookie *http.Cookie
			for _, cookie := range w.Result().Cookies() {
				if cookie.Name == constants.AuthTokenCookieName {
					authCookie = cookie
				}
			}
			if authCookie == nil || !authCookie.HttpOnly {
				t.Fatalf("expected http-only auth cookie")
			}

			me := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			me.AddCookie(authCookie)
			meRec := httptest.NewRecorder()
			router.ServeHTTP(meRec, me)
			if meRec.Code != http.StatusOK || !strings.Contains(meRec.Body.String(), "writer@example.com") {
				t.Fatalf("expected cookie to authenticate, got %d: %s", meRec.Code, meRec.Body.String())
			}
		})
	}
}

func TestAuthHandlerLogoutExpiresCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(service.NewAuthService(nil, "test-secret"))

	router := gin.New()
	router.POST("/api/auth/logout", handler.Logout)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	expired := map[string]bool{}
	for _, cookie := range w.Result().Cookies() {
		expired[cookie.Name] = cookie.MaxAge < 0
	}
	if !expired[constants.AuthTokenCookieName] || !expired[constants.CSRFTokenCookieName] {
		t.Fatalf("expected both session cookies to expire, got %v", expired)
	}
}
