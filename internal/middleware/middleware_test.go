package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annel0/voxel-pathing/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware_BasicMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	gin.SetMode(gin.TestMode)
	r := gin.New()

	promMw := NewPrometheusMiddleware("test", registry)
	r.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(r)

	r.GET("/api/path/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/error", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "test error"})
	})

	for _, url := range []string{"/api/path/1", "/api/path/2", "/error", "/missing"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	}

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var durationFound, errorsFound bool
	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "test_http_request_duration_seconds":
			durationFound = true
			// Маршрут с параметром, /error и несопоставленный путь
			assert.Len(t, mf.Metric, 3)
		case "test_http_request_errors_total":
			errorsFound = true
			// 500 и 404
			assert.Len(t, mf.Metric, 2)
		case "test_http_requests_inflight":
			assert.Equal(t, 0.0, mf.Metric[0].GetGauge().GetValue())
		}
	}
	assert.True(t, durationFound, "Duration metric not found")
	assert.True(t, errorsFound, "Errors metric not found")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="unmatched"`)
}

func TestRequestLogger_TraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	r.Use(NewRequestLogger(logging.NewWriterLogger("api", &buf, logging.INFO)).Handler())

	var capturedTraceID string
	r.GET("/test", func(c *gin.Context) {
		traceID, exists := c.Get("trace_id")
		require.True(t, exists, "trace_id should be set in context")
		capturedTraceID = traceID.(string)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, capturedTraceID)
	assert.Equal(t, capturedTraceID, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "GET /test 204")
	assert.Contains(t, buf.String(), capturedTraceID)
}

func TestRequestLogger_KeepsClientRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	r.Use(NewRequestLogger(logging.NewWriterLogger("api", &buf, logging.INFO)).Handler())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "agent-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "agent-42", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "trace=agent-42")
}
