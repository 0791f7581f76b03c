package balancer

import "sync"

// Failover selects from a primary pool, promoting a designated backup
// pool when every primary instance is unhealthy. The primary is restored
// as soon as any of its instances recovers.
type Failover struct {
	strategy Strategy
	primary  []*Endpoint
	backup   []*Endpoint

	mu          sync.Mutex
	usingBackup bool
	onFailover  func()
	onRecovery  func()
}

// FailoverOption customizes failover behavior
type FailoverOption func(*Failover)

// WithFailoverHooks registers callbacks fired when the backup pool is
// promoted and when the primary pool recovers
func WithFailoverHooks(onFailover, onRecovery func()) FailoverOption {
	return func(f *Failover) {
		f.onFailover = onFailover
		f.onRecovery = onRecovery
	}
}

// NewFailover wraps a strategy with primary/backup pool promotion
func NewFailover(strategy Strategy, primary, backup []*Endpoint, opts ...FailoverOption) *Failover {
	f := &Failover{
		strategy: strategy,
		primary:  primary,
		backup:   backup,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Name returns the wrapped strategy identifier
func (f *Failover) Name() string { return f.strategy.Name() }

// UsingBackup reports whether the backup pool is currently active
func (f *Failover) UsingBackup() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingBackup
}

// Pick selects from the primary pool when any instance is healthy,
// otherwise from the backup pool
func (f *Failover) Pick() *Endpoint {
	f.mu.Lock()

	primaryAlive := len(eligible(f.primary)) > 0

	switch {
	case primaryAlive && f.usingBackup:
		f.usingBackup = false
		if f.onRecovery != nil {
			defer f.onRecovery()
		}
	case !primaryAlive && !f.usingBackup:
		f.usingBackup = true
		if f.onFailover != nil {
			defer f.onFailover()
		}
	}

	pool := f.primary
	if f.usingBackup {
		pool = f.backup
	}
	f.mu.Unlock()

	return f.strategy.Pick(pool)
}
