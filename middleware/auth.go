package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jrolls0/transplant-wizard-sub000/config"
)

// Claims carried by review-API tokens. Tokens are minted by the platform's
// auth service; this middleware only verifies them.
type Claims struct {
	Reviewer string `json:"reviewer"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SignToken creates a review token. Used by tests and by the platform's
// token-minting tooling; the intake service itself never issues tokens in
// request handling.
func SignToken(reviewer, role string, ttl time.Duration, cfg *config.AuthConfig) (string, error) {
	claims := Claims{
		Reviewer: reviewer,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// Auth verifies the bearer token on review-API requests.
func Auth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("reviewer", claims.Reviewer)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// GetReviewer gets the authenticated reviewer from context
func GetReviewer(c *gin.Context) string {
	if reviewer, exists := c.Get("reviewer"); exists {
		return reviewer.(string)
	}
	return ""
}
