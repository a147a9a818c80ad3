package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveRequest("/login", http.MethodPost, "303", 10*time.Millisecond)
	m.ObserveRequest("/login", http.MethodPost, "303", 10*time.Millisecond)
	m.ObserveGeocode(GeocodeOK, 50*time.Millisecond)
	m.ObserveGeocode(GeocodeFailed, 5*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/login", "POST", "303")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeLookups.WithLabelValues(GeocodeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeLookups.WithLabelValues(GeocodeFailed)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", "GET", "200", time.Millisecond)
	m.ObserveGeocode(GeocodeOK, time.Millisecond)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Registrations.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "traveldiary_registrations_total 1")
}
