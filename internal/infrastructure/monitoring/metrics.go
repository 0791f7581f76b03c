package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics (status API)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	BreakerState *prometheus.GaugeVec
	BreakerTrips *prometheus.CounterVec

	// Service call metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec
	ServiceRetries  *prometheus.CounterVec
	ServiceErrors   *prometheus.CounterVec

	// Discovery metrics
	ProbesTotal     *prometheus.CounterVec
	ProbeDuration   *prometheus.HistogramVec
	ServicesHealthy prometheus.Gauge
	ServicesKnown   prometheus.Gauge

	// Load balancer metrics
	BalancerSelections *prometheus.CounterVec
	BalancerFailovers  *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commlayer_http_requests_total",
				Help: "Total number of HTTP requests to the status API",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commlayer_http_request_duration_seconds",
				Help:    "Status API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		BreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "commlayer_breaker_state",
				Help: "Circuit breaker state per service (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		BreakerTrips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commlayer_breaker_trips_total",
				Help: "Total number of circuit breaker transitions to open",
			},
			[]string{"service"},
		),

		ServiceCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commlayer_service_calls_total",
				Help: "Total number of cross-service calls",
			},
			[]string{"service", "operation", "status"},
		),
		ServiceDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commlayer_service_call_duration_seconds",
				Help:    "Cross-service call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "operation"},
		),
		ServiceRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commlayer_service_retries_total",
				Help: "Total number of retried call attempts",
			},
			[]string{"service", "operation"},
		),
		ServiceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commlayer_service_errors_total",
				Help: "Total number of cross-service call errors by class",
			},
			[]string{"service", "operation", "error_type"},
		),

		ProbesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commlayer_health_probes_total",
				Help: "Total number of discovery health probes",
			},
			[]string{"service", "outcome"},
		),
		ProbeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commlayer_health_probe_duration_seconds",
				Help:    "Discovery health probe duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service"},
		),
		ServicesHealthy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "commlayer_services_healthy",
				Help: "Number of logical services currently healthy",
			},
		),
		ServicesKnown: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "commlayer_services_known",
				Help: "Number of logical services registered with the locator",
			},
		),

		BalancerSelections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commlayer_balancer_selections_total",
				Help: "Total number of endpoint selections by strategy",
			},
			[]string{"service", "strategy", "endpoint"},
		),
		BalancerFailovers: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commlayer_balancer_failovers_total",
				Help: "Total number of promotions of a backup pool",
			},
			[]string{"service"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "commlayer_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records a status API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordBreakerState records the current state of a service's breaker
func (m *Metrics) RecordBreakerState(service string, state float64) {
	m.BreakerState.WithLabelValues(service).Set(state)
}

// RecordBreakerTrip records a transition to the open state
func (m *Metrics) RecordBreakerTrip(service string) {
	m.BreakerTrips.WithLabelValues(service).Inc()
}

// RecordServiceCall records the outcome of a cross-service call
func (m *Metrics) RecordServiceCall(service, operation, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, operation, status).Inc()
	m.ServiceDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordServiceRetry records a retried call attempt
func (m *Metrics) RecordServiceRetry(service, operation string) {
	m.ServiceRetries.WithLabelValues(service, operation).Inc()
}

// RecordServiceError records a call error by taxonomy class
func (m *Metrics) RecordServiceError(service, operation, errorType string) {
	m.ServiceErrors.WithLabelValues(service, operation, errorType).Inc()
}

// RecordProbe records a discovery health probe outcome
func (m *Metrics) RecordProbe(service string, healthy bool, duration time.Duration) {
	outcome := "healthy"
	if !healthy {
		outcome = "unhealthy"
	}
	m.ProbesTotal.WithLabelValues(service, outcome).Inc()
	m.ProbeDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// SetServiceCounts records the locator's health summary
func (m *Metrics) SetServiceCounts(known, healthy int) {
	m.ServicesKnown.Set(float64(known))
	m.ServicesHealthy.Set(float64(healthy))
}

// RecordSelection records a load balancer endpoint selection
func (m *Metrics) RecordSelection(service, strategy, endpoint string) {
	m.BalancerSelections.WithLabelValues(service, strategy, endpoint).Inc()
}

// RecordFailover records a backup pool promotion
func (m *Metrics) RecordFailover(service string) {
	m.BalancerFailovers.WithLabelValues(service).Inc()
}
