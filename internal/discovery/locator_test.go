package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/logging"
)

func healthyServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","version":"1.4.2","uptime_seconds":321}`))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func unhealthyServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestLocatorValidatesConfig(t *testing.T) {
	_, err := NewLocator(map[string]ServiceConfig{
		"": {URL: "http://somewhere"},
	}, time.Second, logging.NewNop())
	require.Error(t, err)

	_, err = NewLocator(map[string]ServiceConfig{
		"doc-store": {},
	}, time.Second, logging.NewNop())
	require.Error(t, err)
}

func TestLocatorHealthView(t *testing.T) {
	healthy := healthyServer(t)
	unhealthy := unhealthyServer(t)

	locator, err := NewLocator(map[string]ServiceConfig{
		"doc-store": {URL: healthy.URL},
		"analyzer":  {URL: unhealthy.URL},
	}, time.Second, logging.NewNop())
	require.NoError(t, err)

	locator.CheckAll(context.Background())

	assert.True(t, locator.IsAvailable("doc-store"))
	assert.False(t, locator.IsAvailable("analyzer"))
	assert.False(t, locator.IsAvailable("unknown"))

	docStore := locator.Health("doc-store")
	require.NotNil(t, docStore)
	assert.True(t, docStore.Healthy)
	assert.Equal(t, "1.4.2", docStore.Version)
	assert.Empty(t, docStore.Error)
	assert.False(t, docStore.LastChecked.IsZero())

	analyzer := locator.Health("analyzer")
	require.NotNil(t, analyzer)
	assert.False(t, analyzer.Healthy)
	assert.Contains(t, analyzer.Error, "503")

	assert.Nil(t, locator.Health("unknown"))

	summary := locator.Summarize()
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Healthy)
	assert.Equal(t, 1, summary.Unhealthy)
	assert.False(t, summary.Running)
}

func TestLocatorProbeFailureIsData(t *testing.T) {
	// Connection refused must degrade the flag, not error out
	locator, err := NewLocator(map[string]ServiceConfig{
		"gone": {URL: "http://127.0.0.1:1"},
	}, 500*time.Millisecond, logging.NewNop())
	require.NoError(t, err)

	locator.CheckAll(context.Background())

	endpoint := locator.Health("gone")
	require.NotNil(t, endpoint)
	assert.False(t, endpoint.Healthy)
	assert.NotEmpty(t, endpoint.Error)
}

func TestLocatorResolve(t *testing.T) {
	healthy := healthyServer(t)
	unhealthy := unhealthyServer(t)

	locator, err := NewLocator(map[string]ServiceConfig{
		"doc-store":  {URL: healthy.URL},
		"analyzer":   {URL: unhealthy.URL},
		"summarizer": {URL: unhealthy.URL, FallbackURL: "http://summarizer-backup:9000"},
	}, time.Second, logging.NewNop())
	require.NoError(t, err)

	locator.CheckAll(context.Background())

	// Healthy: configured URL
	assert.Equal(t, healthy.URL, locator.Resolve("doc-store", ""))

	// Unhealthy with explicit fallback: fallback wins
	assert.Equal(t, "http://backup:8000", locator.Resolve("analyzer", "http://backup:8000"))

	// Unhealthy without explicit fallback: configured fallback
	assert.Equal(t, "http://summarizer-backup:9000", locator.Resolve("summarizer", ""))

	// Unhealthy with nothing configured: original URL, caller decides
	assert.Equal(t, unhealthy.URL, locator.Resolve("analyzer", ""))

	// Unknown: fallback or empty
	assert.Equal(t, "", locator.Resolve("unknown", ""))
	assert.Equal(t, "http://backup:8000", locator.Resolve("unknown", "http://backup:8000"))
}

func TestLocatorDiscoveryLoop(t *testing.T) {
	var probes atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	locator, err := NewLocator(map[string]ServiceConfig{
		"doc-store": {URL: srv.URL},
	}, time.Second, logging.NewNop())
	require.NoError(t, err)

	locator.StartDiscovery(20 * time.Millisecond)
	assert.True(t, locator.Running())

	// Duplicate start is a no-op
	locator.StartDiscovery(20 * time.Millisecond)

	require.Eventually(t, func() bool {
		return probes.Load() >= 3 && locator.IsAvailable("doc-store")
	}, 2*time.Second, 10*time.Millisecond)

	locator.StopDiscovery()
	assert.False(t, locator.Running())

	settled := probes.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, probes.Load(), "no probes after stop")

	// Stop is idempotent and safe without a running loop
	locator.StopDiscovery()
}

func TestLocatorStopNeverStarted(t *testing.T) {
	locator, err := NewLocator(map[string]ServiceConfig{
		"doc-store": {URL: "http://doc-store:8080"},
	}, time.Second, logging.NewNop())
	require.NoError(t, err)

	locator.StopDiscovery()
	assert.False(t, locator.Running())
}

func TestLocatorHistory(t *testing.T) {
	srv := unhealthyServer(t)

	locator, err := NewLocator(map[string]ServiceConfig{
		"analyzer": {URL: srv.URL},
	}, time.Second, logging.NewNop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		locator.CheckAll(context.Background())
	}

	records := locator.History("analyzer")
	require.Len(t, records, 3)
	for _, record := range records {
		assert.False(t, record.Healthy)
	}

	assert.Empty(t, locator.History("unknown"))
}

func TestLocatorProbeObserver(t *testing.T) {
	srv := healthyServer(t)

	var observed atomic.Int64
	locator, err := NewLocator(map[string]ServiceConfig{
		"doc-store": {URL: srv.URL},
	}, time.Second, logging.NewNop(), WithProbeObserver(func(service string, healthy bool, duration time.Duration) {
		if service == "doc-store" && healthy {
			observed.Add(1)
		}
	}))
	require.NoError(t, err)

	locator.CheckAll(context.Background())
	assert.Equal(t, int64(1), observed.Load())
}
