package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.DELETE("/api/bmi/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/bmi/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("DELETE", "/api/bmi/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestRecordSubmission(t *testing.T) {
	m := New()
	m.RecordSubmission("Overweight")
	m.RecordSubmission("Overweight")
	m.RecordSubmission("")
	m.RecordDeletion()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("Overweight")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletions))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordSubmission("Obesity") })
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RecordSubmission("Normal weight")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `bmi_tracker_records_submitted_total{category="Normal weight"} 1`))
}
