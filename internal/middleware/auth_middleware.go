package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/pkg/logger"
)

const tokenIssuer = "sitebuilder"

var (
	errMalformedHeader = errors.New("invalid authorization header format")
	errNoCredentials   = errors.New("authorization credentials required")
)

// Claims are the JWT claims accepted by the editor API.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for subject with role.
func IssueToken(jwtSecret, subject, role string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return "", errors.New("jwt secret is required")
	}
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
}

// AuthMiddleware accepts a bearer token or, for the preview iframe and its
// socket which cannot set headers, the session cookie.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	}

	return func(c *gin.Context) {
		raw, err := tokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, keyFunc,
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(tokenIssuer),
		)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)
		c.Request = c.Request.WithContext(logger.ContextWithFields(c.Request.Context(), map[string]interface{}{"user": claims.Subject}))
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) (string, error) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errMalformedHeader
		}
		return strings.TrimSpace(token), nil
	}

	if cookie, err := c.Cookie(constants.AuthTokenCookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return cookie, nil
	}
	return "", errNoCredentials
}

// EditorMiddleware admits editors and admins.
func EditorMiddleware() gin.HandlerFunc {
	return requireRole("editor access required", constants.RoleEditor, constants.RoleAdmin)
}

// AdminMiddleware admits admins only.
func AdminMiddleware() gin.HandlerFunc {
	return requireRole("admin access required", constants.RoleAdmin)
}

func requireRole(message string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": message})
	}
}
