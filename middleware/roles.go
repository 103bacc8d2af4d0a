package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/models"
	"gorm.io/gorm"
)

// ContextCurrentUser holds the *models.User resolved by CurrentUser
const ContextCurrentUser = "current_user"

// CurrentUser loads the employee behind the token subject.
// It must run after EnsureValidToken.
func CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID, err := GetUserID(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}

		var user models.User
		if err := config.GetDB().WithContext(c.Request.Context()).Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
				return
			}
			abortWithError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user profile")
			return
		}

		if !user.Active {
			abortWithError(c, http.StatusUnauthorized, "USER_INACTIVE", "This account has been deactivated")
			return
		}

		c.Set(ContextCurrentUser, &user)
		c.Next()
	}
}

// GetCurrentUser returns the employee stored by CurrentUser
func GetCurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(ContextCurrentUser)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "Current user not found in context"}
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		return nil, &AuthError{Code: "INVALID_USER", Message: "Current user is not in the expected format"}
	}
	return user, nil
}

// RequireRoles lets the request through only when the current user holds one of roles
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		user, err := GetCurrentUser(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		if !allowed[user.Role] {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Your role does not permit this action")
			return
		}
		c.Next()
	}
}
