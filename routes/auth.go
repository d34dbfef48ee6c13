package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spotmap/middleware"
	"spotmap/services"
)

// AuthRoutes sets up the authentication routes. Sign-in and refresh are
// public; logout and the profile endpoint require a valid access token.
func AuthRoutes(router *gin.Engine, svc *services.AuthService, jwtSecret string) {
	auth := router.Group("/auth")
	{
		auth.POST("/google", GoogleLogin(svc))
		auth.POST("/refresh", Refresh(svc))
	}

	protected := router.Group("/auth")
	protected.Use(middleware.Auth(jwtSecret))
	{
		protected.GET("/me", Me(svc))
		protected.POST("/logout", Logout(svc))
	}
}

// GoogleLogin exchanges a Google authorization code for a token pair,
// creating the user on first sign-in.
func GoogleLogin(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AuthCode string `json:"auth_code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		resp, err := svc.LoginWithGoogle(c.Request.Context(), req.AuthCode)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Google sign-in failed"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Refresh rotates the token pair. The access token may be expired.
func Refresh(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AccessToken  string `json:"access_token" binding:"required"`
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		resp, err := svc.Refresh(req.AccessToken, req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Me returns the authenticated user's profile.
func Me(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := svc.Profile(middleware.GetUserID(c))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

// Logout invalidates the presented refresh token.
func Logout(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		ok, err := svc.Logout(middleware.GetUserID(c), req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
			return
		}
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown refresh token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}
