package middleware

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// SPAHandler serves files from dir and falls back to index.html so client-side
// routes resolve. Unknown /api paths still get a JSON 404.
func SPAHandler(dir string) gin.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || path == "/api" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": apperrors.Kind(apperrors.ErrNotFound)})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": apperrors.Kind(apperrors.ErrNotFound)})
			return
		}

		clean := filepath.Clean("/" + path)
		if info, err := os.Stat(filepath.Join(dir, clean)); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.File(index)
	}
}
