package testutil

import (
	"net/http"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/middleware"
)

// Headers read by MockAuth in place of a signed JWT
const (
	HeaderSubject = "X-Test-Subject"
	HeaderRole    = "X-Test-Role"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer, role string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{Role: role},
	}
}

// SetMockAuthContext stores the same context values EnsureValidToken would
func SetMockAuthContext(c *gin.Context, subject, role string) {
	c.Set(middleware.ContextUserID, subject)
	c.Set(middleware.ContextAccessToken, "mock-token-for-"+subject)
	c.Set(middleware.ContextClaims, MockValidatedClaims(subject, "https://test.auth0.com/", role))
}

// MockAuth stands in for middleware.EnsureValidToken. The subject comes from
// the X-Test-Subject header so one router can serve several employees;
// requests without it are rejected the way an invalid token is.
func MockAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader(HeaderSubject)
		if subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}
		SetMockAuthContext(c, subject, c.GetHeader(HeaderRole))
		c.Next()
	}
}
