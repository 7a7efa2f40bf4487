package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func corsRouter(origins string) *gin.Engine {
	router := gin.New()
	if middleware := createCORSMiddleware(origins, discardLogger()); middleware != nil {
		router.Use(middleware)
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return router
}

func TestCreateCORSMiddleware(t *testing.T) {
	t.Run("NoOriginsReturnsNil", func(t *testing.T) {
		assert.Nil(t, createCORSMiddleware("", discardLogger()))
		assert.Nil(t, createCORSMiddleware(" , ", discardLogger()))
	})

	t.Run("OriginsReturnMiddleware", func(t *testing.T) {
		assert.NotNil(t, createCORSMiddleware(" https://app.example.com , https://admin.example.com ", discardLogger()))
	})
}

func TestParseOrigins(t *testing.T) {
	origins := parseOrigins(" https://app.example.com , https://admin.example.com ")
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, origins)
	assert.Nil(t, parseOrigins(""))
}

func TestCORSIntegration(t *testing.T) {
	t.Run("HeadersAddedForAllowedOrigin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		corsRouter("https://app.example.com").ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("NoHeadersWhenDisabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		corsRouter("").ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("PreflightHandled", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		corsRouter("https://app.example.com").ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")
	})
}
