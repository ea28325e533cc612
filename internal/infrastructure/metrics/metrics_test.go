package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRefresh(t *testing.T) {
	m := New()

	m.ObserveRefresh("website", 42, 1700000000)
	m.ObserveRefresh("fallback", 10, 1700000100)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogRefreshes.WithLabelValues("website")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogRefreshes.WithLabelValues("fallback")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.CatalogProducts))
	assert.Equal(t, 1700000100.0, testutil.ToFloat64(m.CatalogFetchedAt))
}

func TestObserveMatchAndResolution(t *testing.T) {
	m := New()

	m.ObserveMatch("exact")
	m.ObserveMatch("exact")
	m.ObserveMatch("none")
	m.ObserveResolution("matched")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Matches.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Matches.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("matched")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRefresh("website", 1, 0)
		m.ObserveMatch("brand")
		m.ObserveResolution("low_confidence")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveMatch("search")

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `timepiece_matcher_matches_total{tier="search"} 1`)
}
