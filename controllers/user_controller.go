package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/middleware"
	"github.com/tailorworks/tailorshop-api/services"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	FullName string `json:"full_name" binding:"omitempty"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"omitempty"`
}

// CreateUser handles POST /api/v1/users - creates the caller's employee profile from Auth0 userinfo.
// An account an admin created beforehand with the same email is linked instead.
func CreateUser(c *gin.Context) {
	// Get the Auth0 user ID from the validated JWT
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	// Get the access token to call Auth0's /userinfo endpoint
	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	var provider services.UserInfoProvider = services.NewAuth0Service(config.GetConfig())
	userInfo, err := provider.GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		log.Printf("Auth0 userinfo lookup failed for %s: %v", auth0ID, err)
		respondFailure(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	if userInfo.Email == "" {
		respondFailure(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}
	if userInfo.Name == "" {
		respondFailure(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0")
		return
	}

	// Role comes from the custom claim; Provision defaults it to Tailor
	user, err := employeeService().Provision(c.Request.Context(), services.EmployeeInput{
		FullName:      userInfo.Name,
		Email:         userInfo.Email,
		EmailVerified: userInfo.EmailVerified,
		Phone:         userInfo.PhoneNumber,
		Role:          middleware.GetRoleClaim(c),
		Auth0ID:       auth0ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates current user's profile
func UpdateMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updated, err := employeeService().UpdateProfile(c.Request.Context(), user, req.FullName, req.Email, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, updated)
}
