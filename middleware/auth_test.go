package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jrolls0/transplant-wizard-sub000/config"
)

func authRouter(cfg *config.AuthConfig) *gin.Engine {
	router := gin.New()
	router.Use(Auth(cfg))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"reviewer": GetReviewer(c)})
	})
	return router
}

func TestAuthValidToken(t *testing.T) {
	cfg := &config.AuthConfig{JWTSecret: "test-secret"}
	token, err := SignToken("dr-lee", "reviewer", time.Hour, cfg)
	if err != nil {
		t.Fatalf("SignToken failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	authRouter(cfg).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthRejections(t *testing.T) {
	cfg := &config.AuthConfig{JWTSecret: "test-secret"}
	otherCfg := &config.AuthConfig{JWTSecret: "other-secret"}

	wrongSecret, _ := SignToken("dr-lee", "reviewer", time.Hour, otherCfg)
	expired, _ := SignToken("dr-lee", "reviewer", -time.Hour, cfg)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc123"},
		{"malformed", "Bearer"},
		{"garbage token", "Bearer not.a.token"},
		{"wrong secret", "Bearer " + wrongSecret},
		{"expired", "Bearer " + expired},
	}

	router := authRouter(cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", w.Code)
			}
		})
	}
}

func TestGetReviewerClaims(t *testing.T) {
	cfg := &config.AuthConfig{JWTSecret: "test-secret"}
	token, _ := SignToken("dr-lee", "reviewer", time.Hour, cfg)

	router := gin.New()
	router.Use(Auth(cfg))
	var reviewer, role string
	router.GET("/protected", func(c *gin.Context) {
		reviewer = GetReviewer(c)
		role = c.GetString("role")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if reviewer != "dr-lee" {
		t.Errorf("Expected reviewer dr-lee, got %q", reviewer)
	}
	if role != "reviewer" {
		t.Errorf("Expected role reviewer, got %q", role)
	}
}
