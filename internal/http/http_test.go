package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/metrics"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func serve(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestServer_Health(t *testing.T) {
	s := NewServer(ServerConfig{Host: "localhost", Port: 8080}, nil, nil, discardLogger())

	w, body := serve(t, s, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	requestID, err := uuid.Parse(w.Header().Get("X-Request-Id"))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), requestID.Version())
}

func TestServer_Readiness(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		checks := map[string]ReadinessCheck{
			"session": func(context.Context) error { return nil },
		}
		s := NewServer(ServerConfig{}, nil, checks, discardLogger())

		w, body := serve(t, s, "/ready")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", body["status"])
		assert.Equal(t, map[string]any{"session": "ok"}, body["components"])
	})

	t.Run("NotReady", func(t *testing.T) {
		checks := map[string]ReadinessCheck{
			"session": func(context.Context) error { return errors.New("expired") },
			"gateway": func(context.Context) error { return nil },
		}
		s := NewServer(ServerConfig{}, nil, checks, discardLogger())

		w, body := serve(t, s, "/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, map[string]any{"session": "error", "gateway": "ok"}, body["components"])
	})

	t.Run("NotReady_ClassifiesErrors", func(t *testing.T) {
		checks := map[string]ReadinessCheck{
			"session": func(context.Context) error {
				return apperrors.Wrap(apperrors.ErrAuthentication, "no active session")
			},
			"gateway": func(context.Context) error {
				return apperrors.Wrap(apperrors.ErrNetwork, "connection refused")
			},
			"slow": func(ctx context.Context) error {
				return context.DeadlineExceeded
			},
		}
		s := NewServer(ServerConfig{}, nil, checks, discardLogger())

		w, body := serve(t, s, "/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, map[string]any{
			"session": "unauthenticated",
			"gateway": "unreachable",
			"slow":    "timeout",
		}, body["components"])
	})
}

func TestServer_Metrics(t *testing.T) {
	t.Run("Exposed", func(t *testing.T) {
		provider, err := metrics.NewProvider("test_app")
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, provider.Shutdown(context.Background()))
		}()

		s := NewServer(ServerConfig{}, provider, nil, discardLogger())
		w, _ := serve(t, s, "/metrics")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("AbsentWithoutProvider", func(t *testing.T) {
		s := NewServer(ServerConfig{}, nil, nil, discardLogger())
		w, _ := serve(t, s, "/metrics")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_StartStopsWithContext(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	s := NewServer(ServerConfig{Host: "127.0.0.1", Port: port}, nil, nil, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + s.Addr() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
