package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/api/summary", "200"))
	ObserveHTTP(http.MethodGet, "/api/summary", http.StatusOK, 20*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/api/summary", "200"))
	assert.Equal(t, before+1, after)

	ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
