package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("session_id", "123"),
		attribute.String("intent", "advance"),
		attribute.String("outcome", "ok"),
	)

	require.Len(t, attrs, 2)
	for _, attr := range attrs {
		assert.NotEqual(t, attribute.Key("session_id"), attr.Key)
	}
}

func TestMetricsAreNilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordSessionCreated(ctx)
		m.RecordTransition(ctx, "advance", "Business", false)
		m.RecordGenerate(ctx, "pdf", OutcomeOK)
		m.RecordRateLimitDenied(ctx, "generate")
	})
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RecordTransition(context.Background(), "retreat", "Items", true)
	})
}

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWith(reg)
	require.NoError(t, err)

	again, err := NewHTTPMetricsWith(reg)
	require.NoError(t, err, "registering twice reuses collectors")

	r := gin.New()
	r.Use(GinMiddleware(again))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/ping", "204")))
}
