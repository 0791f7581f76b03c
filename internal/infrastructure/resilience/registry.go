package resilience

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/logging"
)

// Criticality classifies how aggressively a service's breaker trips.
// Critical services sit on many dependency chains and get a tighter
// threshold with a longer recovery window.
type Criticality string

const (
	CriticalityCritical Criticality = "critical"
	CriticalityStandard Criticality = "standard"
)

// BreakerConfig holds per-service breaker thresholds
type BreakerConfig struct {
	Criticality      Criticality
	FailureThreshold uint32
	SuccessThreshold uint32
	RecoveryTimeout  time.Duration
	IsFailure        func(error) bool
}

// Defaults returns the threshold defaults for a criticality class.
// These are configuration defaults, overridable per deployment.
func (c Criticality) Defaults() BreakerConfig {
	switch c {
	case CriticalityCritical:
		return BreakerConfig{
			Criticality:      CriticalityCritical,
			FailureThreshold: 3,
			SuccessThreshold: 2,
			RecoveryTimeout:  60 * time.Second,
		}
	default:
		return BreakerConfig{
			Criticality:      CriticalityStandard,
			FailureThreshold: 5,
			SuccessThreshold: 1,
			RecoveryTimeout:  30 * time.Second,
		}
	}
}

// Registry owns one circuit breaker per logical service
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	logger   *logging.Logger

	onStateChange func(name string, from State, to State)
}

// RegistryOption customizes registry construction
type RegistryOption func(*Registry)

// WithStateChangeHook registers a callback fired on every breaker state change
func WithStateChangeHook(hook func(name string, from State, to State)) RegistryOption {
	return func(r *Registry) {
		r.onStateChange = hook
	}
}

// NewRegistry creates a registry pre-populated with a breaker per service
func NewRegistry(services map[string]BreakerConfig, logger *logging.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		breakers: make(map[string]*Breaker, len(services)),
		logger:   logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	for name, cfg := range services {
		r.breakers[name] = r.newBreaker(name, cfg)
	}

	logger.Info("Circuit breaker registry initialized", zap.Int("services", len(r.breakers)))

	return r
}

func (r *Registry) newBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold == 0 || cfg.RecoveryTimeout == 0 {
		defaults := cfg.Criticality.Defaults()
		if cfg.FailureThreshold == 0 {
			cfg.FailureThreshold = defaults.FailureThreshold
		}
		if cfg.SuccessThreshold == 0 {
			cfg.SuccessThreshold = defaults.SuccessThreshold
		}
		if cfg.RecoveryTimeout == 0 {
			cfg.RecoveryTimeout = defaults.RecoveryTimeout
		}
	}

	return New(name, Settings{
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		RecoveryTimeout:  cfg.RecoveryTimeout,
		IsFailure:        cfg.IsFailure,
		OnStateChange:    r.handleStateChange,
	})
}

// Register adds a breaker for a service not known at construction.
// Existing breakers are left untouched.
func (r *Registry) Register(name string, cfg BreakerConfig) *Breaker {
	r.mu.RLock()
	breaker, exists := r.breakers[name]
	r.mu.RUnlock()

	if exists {
		return breaker
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if breaker, exists = r.breakers[name]; exists {
		return breaker
	}

	breaker = r.newBreaker(name, cfg)
	r.breakers[name] = breaker

	r.logger.Info("Registered circuit breaker",
		zap.String("service", name),
		zap.String("criticality", string(cfg.Criticality)),
	)

	return breaker
}

// Get retrieves the breaker for a service, or nil if unknown
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.breakers[name]
}

// ExecuteWithBreaker runs the operation through the named service's breaker.
// Errors if the service is unknown; nothing is counted in that case since
// there is no service instance to protect.
func (r *Registry) ExecuteWithBreaker(name string, operation func() (interface{}, error)) (interface{}, error) {
	breaker := r.Get(name)
	if breaker == nil {
		return nil, fmt.Errorf("no circuit breaker registered for service %q", name)
	}

	return breaker.Call(operation)
}

// AllStatus returns a snapshot of every breaker keyed by service name
func (r *Registry) AllStatus() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make(map[string]Status, len(r.breakers))
	for name, breaker := range r.breakers {
		statuses[name] = breaker.Status()
	}

	return statuses
}

// Reset forces the named breaker closed. Returns false for unknown services.
func (r *Registry) Reset(name string) bool {
	breaker := r.Get(name)
	if breaker == nil {
		return false
	}

	breaker.Reset()
	r.logger.Info("Circuit breaker reset", zap.String("service", name))

	return true
}

// ResetAll resets every breaker, reporting per-service outcomes
func (r *Registry) ResetAll() map[string]bool {
	r.mu.RLock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	r.mu.RUnlock()

	results := make(map[string]bool, len(names))
	for _, name := range names {
		results[name] = r.Reset(name)
	}

	return results
}

// handleStateChange logs transitions and forwards them to the registry hook
func (r *Registry) handleStateChange(name string, from State, to State) {
	switch to {
	case StateOpen:
		r.logger.Warn("Circuit breaker opened, requests will fail fast",
			zap.String("service", name),
			zap.String("from", from.String()),
		)
	case StateHalfOpen:
		r.logger.Info("Circuit breaker half-open, probing recovery",
			zap.String("service", name),
		)
	case StateClosed:
		r.logger.Info("Circuit breaker closed, service healthy",
			zap.String("service", name),
		)
	}

	if r.onStateChange != nil {
		r.onStateChange(name, from, to)
	}
}
