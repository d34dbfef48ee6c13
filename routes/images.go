package routes

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"spotmap/storage"
)

// ImageRoutes sets up the public file-serving routes. The legacy paths stay
// registered so references stored before the directory migration keep
// working; all of them resolve through the same multi-root search.
func ImageRoutes(router *gin.Engine, store storage.ImageStore) {
	router.GET("/uploads/images/:filename", ServeImage(store))
	router.GET("/uploads/markers/:filename", ServeImage(store))
	router.GET("/api/marker-image/:filename", ServeImage(store))
}

// ServeImage streams a stored image back to the client.
func ServeImage(store storage.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		filename := filepath.Base(c.Param("filename"))
		if filename == "" || filename == "." {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Filename is required"})
			return
		}

		path, err := store.Resolve(filename)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}

		c.Header("Cache-Control", "public, max-age=3600")
		c.Header("Content-Type", contentTypeFor(filename))
		c.File(path)
	}
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}
