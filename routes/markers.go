package routes

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spotmap/middleware"
	"spotmap/models"
	"spotmap/services"
)

// MarkerRoutes sets up the routes for marker-related operations. Reads are
// public; every mutation requires authentication.
func MarkerRoutes(router *gin.Engine, svc *services.MarkerService, jwtSecret string) {
	markers := router.Group("/api/markers")
	{
		markers.GET("", ListMarkers(svc))
		markers.GET("/:id", GetMarker(svc))
	}

	protected := router.Group("/api/markers")
	protected.Use(middleware.Auth(jwtSecret))
	{
		protected.GET("/me", GetMyMarkers(svc))
		protected.POST("", CreateMarker(svc))
		protected.PUT("/:id", UpdateMarker(svc))
		protected.DELETE("/:id", DeleteMarker(svc))
		protected.POST("/:id/rate", RateMarker(svc))
		protected.POST("/:id/images", UploadMarkerImage(svc))
		protected.DELETE("/:id/images", DeleteMarkerImage(svc))
	}

	images := router.Group("/api/images")
	images.Use(middleware.Auth(jwtSecret))
	{
		images.DELETE("/:image_id", DeleteImageByID(svc))
	}
}

// writeServiceError maps service failures onto HTTP statuses. Forbidden is
// reported as 404 so the API never reveals resources the caller may not
// touch.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
	case errors.Is(err, services.ErrNoContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func markerID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid marker id"})
		return 0, false
	}
	return id, true
}

// ListMarkers returns every marker with its images and ratings.
func ListMarkers(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := svc.ListMarkers()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve markers: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// GetMyMarkers returns the markers owned by the authenticated user.
func GetMyMarkers(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := svc.ListMarkersByUser(middleware.GetUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve markers: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// GetMarker retrieves a single marker by id.
func GetMarker(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := markerID(c)
		if !ok {
			return
		}
		view, err := svc.GetMarker(id)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// CreateMarker creates a marker owned by the authenticated user.
func CreateMarker(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.MarkerCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		view, err := svc.CreateMarker(req, middleware.GetUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create marker: " + err.Error()})
			return
		}
		c.JSON(http.StatusCreated, view)
	}
}

// UpdateMarker applies a partial update. Owner only.
func UpdateMarker(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := markerID(c)
		if !ok {
			return
		}
		var req models.MarkerUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		view, err := svc.UpdateMarker(id, req, middleware.GetUserID(c))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DeleteMarker removes a marker and all of its images. Owner only.
func DeleteMarker(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := markerID(c)
		if !ok {
			return
		}
		deleted, err := svc.DeleteMarker(id, middleware.GetUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete marker: " + err.Error()})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Marker deleted successfully"})
	}
}

// RateMarker records the authenticated user's rating of a marker.
func RateMarker(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := markerID(c)
		if !ok {
			return
		}
		var req models.RatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		view, err := svc.RateMarker(id, req.Rating, middleware.GetUserID(c))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// UploadMarkerImage accepts a multipart upload. Field "image" carries the
// file; "isMainImage" selects between replacing the main image (owner only)
// and appending a secondary image (any authenticated user).
func UploadMarkerImage(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := markerID(c)
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
			return
		}
		isMain, _ := strconv.ParseBool(c.PostForm("isMainImage"))

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image file"})
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image file"})
			return
		}

		view, err := svc.UploadImage(id, data, fileHeader.Filename, isMain, middleware.GetUserID(c))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DeleteMarkerImage removes the image referenced by the imageUrl query
// parameter from the marker.
func DeleteMarkerImage(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := markerID(c)
		if !ok {
			return
		}
		imageURL := c.Query("imageUrl")
		if imageURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Image URL is required"})
			return
		}
		view, err := svc.DeleteImage(id, imageURL, middleware.GetUserID(c))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DeleteImageByID removes a secondary image by its own id.
func DeleteImageByID(svc *services.MarkerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		imageID, err := strconv.Atoi(c.Param("image_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
			return
		}
		deleted, err := svc.DeleteImageByID(imageID, middleware.GetUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image: " + err.Error()})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
	}
}
