package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, method, route, class string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, requestTotal.WithLabelValues(method, route, class).Write(&m))
	return m.GetCounter().GetValue()
}

func newMetricsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware("/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/jobs/:id", func(c *gin.Context) {
		if c.Param("id") == "0" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func serve(r http.Handler, path string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
}

func TestGinMiddleware_LabelsByRouteTemplate(t *testing.T) {
	r := newMetricsRouter()
	okBefore := counterValue(t, http.MethodGet, "/api/jobs/:id", "2xx")
	notFoundBefore := counterValue(t, http.MethodGet, "/api/jobs/:id", "4xx")

	serve(r, "/api/jobs/1")
	serve(r, "/api/jobs/2")
	serve(r, "/api/jobs/0")

	assert.Equal(t, okBefore+2, counterValue(t, http.MethodGet, "/api/jobs/:id", "2xx"))
	assert.Equal(t, notFoundBefore+1, counterValue(t, http.MethodGet, "/api/jobs/:id", "4xx"))
}

func TestGinMiddleware_SkipsAndUnmatched(t *testing.T) {
	r := newMetricsRouter()
	healthBefore := counterValue(t, http.MethodGet, "/health", "2xx")
	unmatchedBefore := counterValue(t, http.MethodGet, UnmatchedRoute, "4xx")

	serve(r, "/health")
	serve(r, "/no/such/path")

	assert.Equal(t, healthBefore, counterValue(t, http.MethodGet, "/health", "2xx"))
	assert.Equal(t, unmatchedBefore+1, counterValue(t, http.MethodGet, UnmatchedRoute, "4xx"))
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		201: "2xx",
		422: "4xx",
		429: "4xx",
		500: "5xx",
		0:   "unknown",
		700: "unknown",
	}
	for status, want := range cases {
		assert.Equal(t, want, StatusClass(status), status)
	}
}
