package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/logging"
)

const (
	// DefaultProbeTimeout bounds a single health probe
	DefaultProbeTimeout = 5 * time.Second

	historySize    = 64
	historyDepth   = 20
	historyTTL     = 30 * time.Minute
	healthEndpoint = "/health"
)

// ServiceConfig declares a logical service known to the locator
type ServiceConfig struct {
	URL         string
	FallbackURL string
}

// Endpoint is the live health view of one logical service
type Endpoint struct {
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	Healthy        bool      `json:"healthy"`
	LastChecked    time.Time `json:"last_checked"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Error          string    `json:"error,omitempty"`
	Version        string    `json:"version,omitempty"`
}

// ProbeRecord is one historical probe outcome
type ProbeRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Healthy        bool      `json:"healthy"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Error          string    `json:"error,omitempty"`
}

// Summary aggregates the locator's health view
type Summary struct {
	Total     int  `json:"total"`
	Healthy   int  `json:"healthy"`
	Unhealthy int  `json:"unhealthy"`
	Running   bool `json:"discovery_running"`
}

// healthPayload is the optional JSON body of a health probe response
type healthPayload struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ProbeObserver is notified of every probe outcome
type ProbeObserver func(service string, healthy bool, duration time.Duration)

// Locator maintains a live health view of all known logical services
// and resolves logical names to reachable base addresses.
type Locator struct {
	probe    *resty.Client
	timeout  time.Duration
	logger   *logging.Logger
	history  *lru.LRU[string, []ProbeRecord]
	observer ProbeObserver

	mu        sync.RWMutex
	endpoints map[string]*Endpoint
	fallbacks map[string]string

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option customizes locator construction
type Option func(*Locator)

// WithProbeObserver registers a callback fired on every probe outcome
func WithProbeObserver(observer ProbeObserver) Option {
	return func(l *Locator) {
		l.observer = observer
	}
}

// WithProbeClient overrides the HTTP client used for health probes
func WithProbeClient(client *resty.Client) Option {
	return func(l *Locator) {
		l.probe = client
	}
}

// NewLocator creates a locator for the given logical services.
// Errors on malformed configuration; probe failures at runtime are
// recorded as data, never raised.
func NewLocator(services map[string]ServiceConfig, probeTimeout time.Duration, logger *logging.Logger, opts ...Option) (*Locator, error) {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	endpoints := make(map[string]*Endpoint, len(services))
	fallbacks := make(map[string]string, len(services))
	for name, cfg := range services {
		if name == "" {
			return nil, fmt.Errorf("service name cannot be empty")
		}
		if cfg.URL == "" {
			return nil, fmt.Errorf("service %q has no URL configured", name)
		}

		endpoints[name] = &Endpoint{Name: name, URL: cfg.URL}
		if cfg.FallbackURL != "" {
			fallbacks[name] = cfg.FallbackURL
		}
	}

	l := &Locator{
		timeout:   probeTimeout,
		logger:    logger,
		history:   lru.NewLRU[string, []ProbeRecord](historySize, nil, historyTTL),
		endpoints: endpoints,
		fallbacks: fallbacks,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.probe == nil {
		l.probe = resty.New().SetTimeout(probeTimeout)
	}

	return l, nil
}

// StartDiscovery begins the periodic health-check loop. Calling it while
// the loop is already running is a no-op.
func (l *Locator) StartDiscovery(interval time.Duration) {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if l.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true

	go l.discoveryLoop(ctx, interval)

	l.logger.Info("Service discovery started",
		zap.Duration("interval", interval),
		zap.Int("services", len(l.endpoints)),
	)
}

// StopDiscovery cancels the loop and any in-flight probes.
// Safe to call even if discovery was never started.
func (l *Locator) StopDiscovery() {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if !l.running {
		return
	}

	l.cancel()
	<-l.done
	l.running = false

	l.logger.Info("Service discovery stopped")
}

// Running reports whether the discovery loop is active
func (l *Locator) Running() bool {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	return l.running
}

func (l *Locator) discoveryLoop(ctx context.Context, interval time.Duration) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First sweep immediately so the health view is populated before
	// the first tick.
	l.CheckAll(ctx)

	for {
		select {
		case <-ticker.C:
			l.CheckAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll probes every registered service concurrently and waits for
// all probes to finish or be cancelled.
func (l *Locator) CheckAll(ctx context.Context) {
	l.mu.RLock()
	names := make([]string, 0, len(l.endpoints))
	for name := range l.endpoints {
		names = append(names, name)
	}
	l.mu.RUnlock()

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			l.checkService(ctx, name)
		}(name)
	}
	wg.Wait()
}

// checkService issues one bounded health probe and folds the outcome
// into the endpoint record. A failed probe is data, not an error.
func (l *Locator) checkService(ctx context.Context, name string) {
	l.mu.RLock()
	endpoint, known := l.endpoints[name]
	var baseURL string
	if known {
		baseURL = endpoint.URL
	}
	l.mu.RUnlock()

	if !known {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()

	var payload healthPayload
	resp, err := l.probe.R().
		SetContext(probeCtx).
		SetResult(&payload).
		Get(baseURL + healthEndpoint)

	elapsed := time.Since(start)

	healthy := err == nil && resp.StatusCode() == 200
	errMsg := ""
	switch {
	case err != nil:
		errMsg = err.Error()
	case !healthy:
		errMsg = fmt.Sprintf("health probe returned HTTP %d", resp.StatusCode())
	}

	l.mu.Lock()
	endpoint.Healthy = healthy
	endpoint.LastChecked = time.Now()
	endpoint.ResponseTimeMs = elapsed.Milliseconds()
	endpoint.Error = errMsg
	if healthy && payload.Version != "" {
		endpoint.Version = payload.Version
	}
	l.mu.Unlock()

	l.recordHistory(name, ProbeRecord{
		Timestamp:      time.Now(),
		Healthy:        healthy,
		ResponseTimeMs: elapsed.Milliseconds(),
		Error:          errMsg,
	})

	if l.observer != nil {
		l.observer(name, healthy, elapsed)
	}

	if !healthy {
		l.logger.Warn("Health probe failed",
			zap.String("service", name),
			zap.String("url", baseURL),
			zap.String("error", errMsg),
		)
	}
}

func (l *Locator) recordHistory(name string, record ProbeRecord) {
	records, _ := l.history.Get(name)
	records = append(records, record)
	if len(records) > historyDepth {
		records = records[len(records)-historyDepth:]
	}
	l.history.Add(name, records)
}

// Resolve returns the address callers should use for a logical service.
// Healthy services resolve to their configured URL. Unhealthy services
// resolve to the supplied fallback, the configured fallback, or the
// original URL in that order; the caller decides whether to proceed.
// Unknown services resolve to the fallback or empty string.
func (l *Locator) Resolve(name, fallbackURL string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	endpoint, known := l.endpoints[name]
	if !known {
		return fallbackURL
	}

	if endpoint.Healthy {
		return endpoint.URL
	}

	if fallbackURL != "" {
		return fallbackURL
	}
	if configured, ok := l.fallbacks[name]; ok {
		return configured
	}

	return endpoint.URL
}

// IsAvailable reports whether the service is known and currently healthy
func (l *Locator) IsAvailable(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	endpoint, known := l.endpoints[name]
	return known && endpoint.Healthy
}

// Health returns a snapshot of one service, or nil if unknown
func (l *Locator) Health(name string) *Endpoint {
	l.mu.RLock()
	defer l.mu.RUnlock()

	endpoint, known := l.endpoints[name]
	if !known {
		return nil
	}

	snapshot := *endpoint
	return &snapshot
}

// AllHealth returns snapshots of every known service keyed by name
func (l *Locator) AllHealth() map[string]Endpoint {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshots := make(map[string]Endpoint, len(l.endpoints))
	for name, endpoint := range l.endpoints {
		snapshots[name] = *endpoint
	}

	return snapshots
}

// History returns the recent probe outcomes for a service, oldest first
func (l *Locator) History(name string) []ProbeRecord {
	records, _ := l.history.Get(name)
	out := make([]ProbeRecord, len(records))
	copy(out, records)
	return out
}

// Summarize aggregates the current health view
func (l *Locator) Summarize() Summary {
	// runMu before mu: StopDiscovery holds runMu while the loop drains,
	// and the loop takes mu.
	running := l.Running()

	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := Summary{Total: len(l.endpoints), Running: running}
	for _, endpoint := range l.endpoints {
		if endpoint.Healthy {
			summary.Healthy++
		} else {
			summary.Unhealthy++
		}
	}

	return summary
}

// SetHealthy overrides a service's health flag. Intended for tests and
// administrative draining.
func (l *Locator) SetHealthy(name string, healthy bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	endpoint, known := l.endpoints[name]
	if !known {
		return false
	}

	endpoint.Healthy = healthy
	endpoint.LastChecked = time.Now()
	return true
}
