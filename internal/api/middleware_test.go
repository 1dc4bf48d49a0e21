package api

import (
	"imtfit/coaching-app/internal/domain"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func makeToken(t *testing.T, secret string, role domain.Role, expiresIn time.Duration) string {
	t.Helper()
	claims := jwtClaims{
		UserID: primitive.NewObjectID().Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "imt-coaching",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func protectedRouter(roles ...domain.Role) *gin.Engine {
	router := gin.New()
	group := router.Group("/secure")
	group.Use(AuthMiddleware(testSecret))
	if len(roles) > 0 {
		group.Use(RoleMiddleware(roles...))
	}
	group.GET("", func(c *gin.Context) {
		userID, _ := getUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": userID})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", "Basic abc123", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "", http.StatusOK},
	}

	router := protectedRouter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.authHeader
			if tt.wantStatus == http.StatusOK {
				header = "Bearer " + makeToken(t, testSecret, domain.RoleClient, time.Hour)
			}

			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	router := protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, testSecret, domain.RoleClient, -time.Minute))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an expired token, got %d", w.Code)
	}
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	router := protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, "other-secret", domain.RoleClient, time.Hour))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a token signed with the wrong secret, got %d", w.Code)
	}
}

func TestRoleMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []domain.Role
		tokenRole  domain.Role
		wantStatus int
	}{
		{"client reaches client route", []domain.Role{domain.RoleClient}, domain.RoleClient, http.StatusOK},
		{"client blocked from coach route", []domain.Role{domain.RoleCoach}, domain.RoleClient, http.StatusForbidden},
		{"coach blocked from admin route", []domain.Role{domain.RoleAdmin}, domain.RoleCoach, http.StatusForbidden},
		{"admin reaches admin route", []domain.Role{domain.RoleAdmin}, domain.RoleAdmin, http.StatusOK},
		{"either of two roles", []domain.Role{domain.RoleCoach, domain.RoleAdmin}, domain.RoleCoach, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := protectedRouter(tt.allowed...)

			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			req.Header.Set("Authorization", "Bearer "+makeToken(t, testSecret, tt.tokenRole, time.Hour))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}
