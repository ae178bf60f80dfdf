package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/shg-marketplace-api/middleware"
	"github.com/kendall-kelly/shg-marketplace-api/models"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject string, role models.Role) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "https://test.auth0.com/",
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Role: string(role),
		},
	}
}

// MockAuth stands in for token validation: it sets the subject and claims of
// the X-Test-Subject and X-Test-Role request headers. Requests without a
// subject are rejected with 401.
func MockAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader("X-Test-Subject")
		if subject == "" {
			c.AbortWithStatusJSON(401, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}

		c.Set("user_id", subject)
		c.Set("validated_claims", MockValidatedClaims(subject, models.Role(c.GetHeader("X-Test-Role"))))
		c.Next()
	}
}

// AsPrincipal injects p directly, skipping token validation and user lookup
func AsPrincipal(p models.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, p)
		c.Next()
	}
}
