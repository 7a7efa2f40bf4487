package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentedTransport(t *testing.T) {
	t.Run("Success_RecordsRouteAndStatus", func(t *testing.T) {
		provider, err := NewProvider("test_app")
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, provider.Shutdown(context.Background()))
		}()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/auth/idexists/missing" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := &http.Client{Transport: NewInstrumentedTransport(nil, provider.MeterProvider(), "test_app")}
		defer client.CloseIdleConnections()

		for _, id := range []string{"alice", "bob", "missing"} {
			ctx := WithRoute(context.Background(), "auth/idexists/{id}")
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/auth/idexists/"+id, nil)
			require.NoError(t, err)
			resp, err := client.Do(req)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())
		}

		w := httptest.NewRecorder()
		provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		output := w.Body.String()

		assertBizMetricLine(t, output, `test_app_http_client_requests_total`,
			`method="GET".*route="auth/idexists/\{id\}".*status_code="200"`, `2`)
		assertBizMetricLine(t, output, `test_app_http_client_requests_total`,
			`method="GET".*route="auth/idexists/\{id\}".*status_code="404"`, `1`)
		assert.NotContains(t, output, "alice")
	})

	t.Run("Success_TransportFailureLabelledError", func(t *testing.T) {
		provider, err := NewProvider("test_app")
		require.NoError(t, err)

		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client := &http.Client{Transport: NewInstrumentedTransport(nil, provider.MeterProvider(), "test_app")}
		req, err := http.NewRequest(http.MethodPost, url+"/v1/sql", nil)
		require.NoError(t, err)
		_, err = client.Do(req)
		require.Error(t, err)

		w := httptest.NewRecorder()
		provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assertBizMetricLine(t, w.Body.String(), `test_app_http_client_requests_total`,
			`method="POST".*route="unknown".*status_code="error"`, `1`)
	})
}
