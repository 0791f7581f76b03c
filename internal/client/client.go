package client

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mthomas46/Hackathon-sub022/internal/balancer"
	"github.com/mthomas46/Hackathon-sub022/internal/discovery"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/logging"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/monitoring"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/resilience"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/tracing"
)

// Operation executes one named request against a resolved base address.
// Implementations receive a request already carrying context, request ID,
// and arguments.
type Operation func(req *resty.Request, baseURL string, args map[string]interface{}) (*resty.Response, error)

// RetryConfig bounds the retry loop for transient failures
type RetryConfig struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryConfig mirrors the transport defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// HealthResult is the structured outcome of a client health check
type HealthResult struct {
	Service             string `json:"service"`
	Healthy             bool   `json:"healthy"`
	CircuitBreakerState string `json:"circuit_breaker_state"`
	Error               string `json:"error,omitempty"`
}

// Client is the call-site facade for one logical service: it resolves a
// live address, executes named operations through the service's circuit
// breaker, retries transient failures with backoff, and reports typed
// errors. Safe for concurrent use.
type Client struct {
	service    string
	registry   *resilience.Registry
	locator    *discovery.Locator
	transport  *resty.Client
	limiter    *rate.Limiter
	retry      RetryConfig
	operations map[string]Operation
	logger     *logging.Logger
	metrics    *monitoring.Metrics

	strategy balancer.Strategy
	pool     []*balancer.Endpoint
	failover *balancer.Failover

	fallbackURL string
}

// ClientOption customizes client construction
type ClientOption func(*Client)

// WithRetry overrides the retry policy
func WithRetry(cfg RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithRateLimit bounds outbound requests per second
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
		} else {
			c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
		}
	}
}

// WithFallbackURL sets the address used when the service is unhealthy
func WithFallbackURL(url string) ClientOption {
	return func(c *Client) {
		c.fallbackURL = url
	}
}

// WithBalancer spreads calls across multiple endpoint instances instead
// of the locator's single configured address
func WithBalancer(strategy balancer.Strategy, pool []*balancer.Endpoint) ClientOption {
	return func(c *Client) {
		c.strategy = strategy
		c.pool = pool
	}
}

// WithFailover routes calls through a primary/backup pool pair, taking
// precedence over WithBalancer
func WithFailover(f *balancer.Failover) ClientOption {
	return func(c *Client) {
		c.failover = f
	}
}

// WithMetrics wires call outcomes into the metrics collector
func WithMetrics(metrics *monitoring.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithTransport overrides the HTTP transport client
func WithTransport(transport *resty.Client) ClientOption {
	return func(c *Client) {
		c.transport = transport
	}
}

// newTransport builds the production transport: resty over
// retryablehttp's pooled transport, with transport-level retries
// disabled since the client runs its own breaker-aware retry loop.
func newTransport(timeout time.Duration) *resty.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	transport := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "commlayer/1.0")
	transport.SetTransport(retryClient.HTTPClient.Transport)

	return transport
}

// New creates a resilient client bound to one logical service. The
// operation table is fixed at construction so unknown operation names
// are configuration errors, never runtime dispatch failures.
func New(service string, registry *resilience.Registry, locator *discovery.Locator, operations map[string]Operation, logger *logging.Logger, opts ...ClientOption) (*Client, error) {
	if service == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}
	if registry.Get(service) == nil {
		return nil, fmt.Errorf("no circuit breaker registered for service %q", service)
	}
	if len(operations) == 0 {
		return nil, fmt.Errorf("service %q has no operations bound", service)
	}

	c := &Client{
		service:    service,
		registry:   registry,
		locator:    locator,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		retry:      DefaultRetryConfig(),
		operations: operations,
		logger:     logger.With(zap.String("service", service)),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = newTransport(30 * time.Second)
	}

	return c, nil
}

// Service returns the bound logical service name
func (c *Client) Service() string {
	return c.service
}

// ExecuteRequest runs a named operation through the breaker with bounded
// retry. Transient failures (unavailable, timeout) are retried with
// exponential backoff and jitter; a breaker trip aborts remaining
// retries immediately.
func (c *Client) ExecuteRequest(ctx context.Context, operation string, args map[string]interface{}) (*resty.Response, error) {
	op, ok := c.operations[operation]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q for service %q", operation, c.service)
	}

	endpoint, baseURL := c.resolve()
	if baseURL == "" {
		// Nothing to call and nothing to protect: fail fast without
		// consulting the breaker.
		return nil, unavailable(c.service, operation, "no address available")
	}

	requestID := uuid.NewString()
	start := time.Now()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.attempt(ctx, op, operation, endpoint, baseURL, requestID, args)
		if err == nil {
			c.recordOutcome(operation, "success", start)
			return resp, nil
		}

		if resilience.IsOpenError(err) {
			c.recordError(operation, "circuit_open", start)
			return resp, err
		}

		if !isTransient(err) || attempt >= c.retry.MaxRetries {
			c.recordError(operation, errorClass(err), start)
			return resp, err
		}

		wait := backoffWithJitter(c.retry.MinWait, c.retry.MaxWait, attempt)
		c.logger.Warn("Transient failure, retrying",
			zap.String("operation", operation),
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordServiceRetry(c.service, operation)
		}

		if err := sleepContext(ctx, wait); err != nil {
			// Cancellation observed: no further attempts
			return nil, err
		}
	}
}

// attempt executes one call through the breaker, classifying the outcome
func (c *Client) attempt(ctx context.Context, op Operation, operation string, endpoint *balancer.Endpoint, baseURL, requestID string, args map[string]interface{}) (*resty.Response, error) {
	if endpoint != nil {
		endpoint.Acquire()
		defer endpoint.Release()
	}

	result, err := c.registry.ExecuteWithBreaker(c.service, func() (interface{}, error) {
		req := c.transport.R().
			SetContext(ctx).
			SetHeader("X-Request-ID", requestID)

		traceHeaders := map[string]string{}
		tracing.InjectTraceContext(ctx, traceHeaders)
		req.SetHeaders(traceHeaders)

		resp, err := op(req, baseURL, args)
		if err != nil {
			return resp, classify(c.service, operation, err)
		}
		if resp != nil && resp.StatusCode() >= 400 {
			return resp, responseError(c.service, operation, resp.StatusCode(), resp.Status())
		}
		return resp, nil
	})

	resp, _ := result.(*resty.Response)
	return resp, err
}

// resolve picks a concrete address, preferring the balancer pool when
// one is configured
func (c *Client) resolve() (*balancer.Endpoint, string) {
	if c.failover != nil {
		wasBackup := c.failover.UsingBackup()
		endpoint := c.failover.Pick()
		if endpoint == nil {
			return nil, ""
		}
		if c.metrics != nil {
			if !wasBackup && c.failover.UsingBackup() {
				c.metrics.RecordFailover(c.service)
			}
			c.metrics.RecordSelection(c.service, c.failover.Name(), endpoint.Name)
		}
		return endpoint, endpoint.URL
	}

	if c.strategy != nil && len(c.pool) > 0 {
		endpoint := c.strategy.Pick(c.pool)
		if endpoint == nil {
			return nil, ""
		}
		if c.metrics != nil {
			c.metrics.RecordSelection(c.service, c.strategy.Name(), endpoint.Name)
		}
		return endpoint, endpoint.URL
	}

	return nil, c.locator.Resolve(c.service, c.fallbackURL)
}

// HealthCheck probes the service's health endpoint through the same
// breaker-protected path. It never panics and always returns a
// structured result.
func (c *Client) HealthCheck(ctx context.Context) HealthResult {
	result := HealthResult{Service: c.service}

	breaker := c.registry.Get(c.service)
	if breaker != nil {
		result.CircuitBreakerState = breaker.State().String()
	}

	_, baseURL := c.resolve()
	if baseURL == "" {
		result.Error = "no address available"
		return result
	}

	var timer *monitoring.Timer
	if c.metrics != nil {
		timer = monitoring.NewTimer(c.metrics, c.service, "health")
	}

	_, err := c.registry.ExecuteWithBreaker(c.service, func() (interface{}, error) {
		resp, err := c.transport.R().SetContext(ctx).Get(baseURL + "/health")
		if err != nil {
			return nil, classify(c.service, "health", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, responseError(c.service, "health", resp.StatusCode(), resp.Status())
		}
		return resp, nil
	})

	if err != nil {
		result.Error = err.Error()
		if timer != nil {
			timer.Stop("error")
		}
	} else {
		result.Healthy = true
		if timer != nil {
			timer.Stop("success")
		}
	}

	if breaker != nil {
		result.CircuitBreakerState = breaker.State().String()
	}

	return result
}

func (c *Client) recordOutcome(operation, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordServiceCall(c.service, operation, status, time.Since(start))
}

func (c *Client) recordError(operation, class string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordServiceCall(c.service, operation, "error", time.Since(start))
	c.metrics.RecordServiceError(c.service, operation, class)
}

// backoffWithJitter computes an exponential backoff bounded by max,
// with up to half the delay randomized to avoid retry stampedes
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	wait := retryablehttp.DefaultBackoff(min, max, attempt, nil)
	if wait <= 0 {
		return 0
	}

	half := wait / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// sleepContext sleeps for the given duration unless the context is
// cancelled first
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
