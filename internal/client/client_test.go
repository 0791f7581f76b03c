package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mthomas46/Hackathon-sub022/internal/balancer"
	"github.com/mthomas46/Hackathon-sub022/internal/discovery"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/logging"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/resilience"
)

func testRegistry(t *testing.T, threshold uint32) *resilience.Registry {
	t.Helper()

	return resilience.NewRegistry(map[string]resilience.BreakerConfig{
		"doc-store": {
			Criticality:      resilience.CriticalityStandard,
			FailureThreshold: threshold,
			SuccessThreshold: 1,
			RecoveryTimeout:  time.Minute,
		},
	}, logging.NewNop())
}

func testLocator(t *testing.T, url string) *discovery.Locator {
	t.Helper()

	locator, err := discovery.NewLocator(map[string]discovery.ServiceConfig{
		"doc-store": {URL: url},
	}, time.Second, logging.NewNop())
	require.NoError(t, err)

	return locator
}

func newTestClient(t *testing.T, url string, threshold uint32, opts ...ClientOption) *Client {
	t.Helper()

	c, err := New("doc-store", testRegistry(t, threshold), testLocator(t, url), map[string]Operation{
		"fetch": Get("/documents"),
		"store": Post("/documents"),
	}, logging.NewNop(), opts...)
	require.NoError(t, err)

	return c
}

func TestNewValidatesConfiguration(t *testing.T) {
	registry := testRegistry(t, 5)
	locator := testLocator(t, "http://doc-store:8080")
	ops := map[string]Operation{"fetch": Get("/documents")}

	_, err := New("", registry, locator, ops, logging.NewNop())
	require.Error(t, err)

	_, err = New("unknown", registry, locator, ops, logging.NewNop())
	require.Error(t, err)

	_, err = New("doc-store", registry, locator, nil, logging.NewNop())
	require.Error(t, err)
}

func TestExecuteRequestSuccess(t *testing.T) {
	var gotRequestID atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID.Store(r.Header.Get("X-Request-ID"))
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, 5)

	resp, err := c.ExecuteRequest(context.Background(), "fetch", map[string]interface{}{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.NotEmpty(t, gotRequestID.Load())
}

func TestExecuteRequestUnknownOperation(t *testing.T) {
	c := newTestClient(t, "http://doc-store:8080", 5)

	_, err := c.ExecuteRequest(context.Background(), "nonexistent", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")

	// Configuration errors never count against the breaker
	status := c.registry.Get("doc-store").Status()
	assert.Equal(t, uint32(0), status.FailureCount)
}

func TestExecuteRequestNoAddressFailsFast(t *testing.T) {
	registry := testRegistry(t, 5)

	// Locator that does not know the service at all
	locator, err := discovery.NewLocator(map[string]discovery.ServiceConfig{
		"other": {URL: "http://other:8080"},
	}, time.Second, logging.NewNop())
	require.NoError(t, err)

	c, err := New("doc-store", registry, locator, map[string]Operation{
		"fetch": Get("/documents"),
	}, logging.NewNop())
	require.NoError(t, err)

	_, err = c.ExecuteRequest(context.Background(), "fetch", nil)

	var unavailableErr *ServiceUnavailableError
	require.ErrorAs(t, err, &unavailableErr)
	assert.Equal(t, "doc-store", unavailableErr.Service)

	// Nothing to protect: breaker untouched
	assert.Equal(t, uint32(0), registry.Get("doc-store").Status().FailureCount)
}

func TestExecuteRequestClassifiesResponseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, 5)

	_, err := c.ExecuteRequest(context.Background(), "fetch", nil)

	var respErr *ServiceResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusInternalServerError, respErr.StatusCode)
	assert.Equal(t, "fetch", respErr.Operation)
}

func TestExecuteRequestClassifiesUnavailable(t *testing.T) {
	// Nothing listens here
	c := newTestClient(t, "http://127.0.0.1:1", 5, WithRetry(RetryConfig{MaxRetries: 0}))

	_, err := c.ExecuteRequest(context.Background(), "fetch", nil)

	var unavailableErr *ServiceUnavailableError
	require.ErrorAs(t, err, &unavailableErr)
}

func TestExecuteRequestClassifiesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, 5,
		WithRetry(RetryConfig{MaxRetries: 0}),
		WithTransport(resty.New().SetTimeout(30*time.Millisecond)),
	)

	_, err := c.ExecuteRequest(context.Background(), "fetch", nil)

	var timeoutErr *ServiceTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestExecuteRequestRetriesTransient(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			// Stall past the transport timeout
			time.Sleep(150 * time.Millisecond)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, 10,
		WithRetry(RetryConfig{MaxRetries: 3, MinWait: 5 * time.Millisecond, MaxWait: 20 * time.Millisecond}),
		WithTransport(resty.New().SetTimeout(40*time.Millisecond)),
	)

	resp, err := c.ExecuteRequest(context.Background(), "fetch", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int64(3), calls.Load())
}

func TestExecuteRequestResponseErrorNotRetried(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, 10, WithRetry(RetryConfig{MaxRetries: 3, MinWait: time.Millisecond, MaxWait: time.Millisecond}))

	_, err := c.ExecuteRequest(context.Background(), "fetch", nil)

	var respErr *ServiceResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, int64(1), calls.Load())
}

func TestBreakerTripAbortsRetries(t *testing.T) {
	// Threshold 1: the first refused connection opens the circuit, so
	// the retry loop must surface the open error instead of burning
	// through remaining attempts.
	c := newTestClient(t, "http://127.0.0.1:1", 1,
		WithRetry(RetryConfig{MaxRetries: 5, MinWait: time.Millisecond, MaxWait: 5 * time.Millisecond}),
	)

	_, err := c.ExecuteRequest(context.Background(), "fetch", nil)
	assert.True(t, resilience.IsOpenError(err))
	assert.Equal(t, resilience.StateOpen, c.registry.Get("doc-store").State())
}

func TestExecuteRequestOpenBreakerFailsFast(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, 1)

	// Trip the breaker directly
	_, _ = c.registry.ExecuteWithBreaker("doc-store", func() (interface{}, error) {
		return nil, assert.AnError
	})
	require.Equal(t, resilience.StateOpen, c.registry.Get("doc-store").State())

	_, err := c.ExecuteRequest(context.Background(), "fetch", nil)
	assert.True(t, resilience.IsOpenError(err))
	assert.Equal(t, int64(0), calls.Load(), "operation must not be invoked while open")
}

func TestExecuteRequestCancellation(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", 10,
		WithRetry(RetryConfig{MaxRetries: 10, MinWait: 50 * time.Millisecond, MaxWait: time.Second}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.ExecuteRequest(ctx, "fetch", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "cancelled retry loop must not run out its attempts")
}

func TestExecuteRequestWithBalancer(t *testing.T) {
	var aCalls, bCalls atomic.Int64

	srvA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		aCalls.Add(1)
	}))
	t.Cleanup(srvA.Close)
	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bCalls.Add(1)
	}))
	t.Cleanup(srvB.Close)

	pool := []*balancer.Endpoint{
		balancer.NewEndpoint("a", srvA.URL, 1),
		balancer.NewEndpoint("b", srvB.URL, 1),
	}

	c := newTestClient(t, srvA.URL, 5, WithBalancer(balancer.NewRoundRobin(), pool))

	for i := 0; i < 4; i++ {
		_, err := c.ExecuteRequest(context.Background(), "fetch", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(2), aCalls.Load())
	assert.Equal(t, int64(2), bCalls.Load())
}

func TestExecuteRequestWithFailover(t *testing.T) {
	var primaryCalls, backupCalls atomic.Int64

	srvPrimary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryCalls.Add(1)
	}))
	t.Cleanup(srvPrimary.Close)
	srvBackup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupCalls.Add(1)
	}))
	t.Cleanup(srvBackup.Close)

	primary := balancer.NewEndpoint("primary", srvPrimary.URL, 1)
	backup := balancer.NewEndpoint("backup", srvBackup.URL, 1)
	failover := balancer.NewFailover(balancer.NewRoundRobin(),
		[]*balancer.Endpoint{primary}, []*balancer.Endpoint{backup})

	c := newTestClient(t, srvPrimary.URL, 5, WithFailover(failover))

	_, err := c.ExecuteRequest(context.Background(), "fetch", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), primaryCalls.Load())

	primary.SetHealthy(false)
	_, err = c.ExecuteRequest(context.Background(), "fetch", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), backupCalls.Load())
	assert.True(t, failover.UsingBackup())

	primary.SetHealthy(true)
	_, err = c.ExecuteRequest(context.Background(), "fetch", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), primaryCalls.Load())
	assert.False(t, failover.UsingBackup())
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, 5)

	result := c.HealthCheck(context.Background())
	assert.Equal(t, "doc-store", result.Service)
	assert.True(t, result.Healthy)
	assert.Equal(t, "closed", result.CircuitBreakerState)
	assert.Empty(t, result.Error)
}

func TestHealthCheckUnhealthy(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", 5)

	result := c.HealthCheck(context.Background())
	assert.False(t, result.Healthy)
	assert.NotEmpty(t, result.Error)
}
