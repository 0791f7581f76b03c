package balancer

import (
	"sync"
	"sync/atomic"
)

// Endpoint is one instance of a logical service in a selection pool
type Endpoint struct {
	Name   string
	URL    string
	Weight int

	healthy atomic.Bool
	active  atomic.Int64
}

// NewEndpoint creates a healthy endpoint with the given weight.
// Weights below one are treated as one.
func NewEndpoint(name, url string, weight int) *Endpoint {
	if weight < 1 {
		weight = 1
	}

	e := &Endpoint{Name: name, URL: url, Weight: weight}
	e.healthy.Store(true)
	return e
}

// IsHealthy reports whether the endpoint is eligible for selection
func (e *Endpoint) IsHealthy() bool {
	return e.healthy.Load()
}

// SetHealthy updates the endpoint's eligibility
func (e *Endpoint) SetHealthy(healthy bool) {
	e.healthy.Store(healthy)
}

// Active returns the number of in-flight calls
func (e *Endpoint) Active() int64 {
	return e.active.Load()
}

// Acquire marks a call dispatched to this endpoint
func (e *Endpoint) Acquire() {
	e.active.Add(1)
}

// Release marks a call completed, successfully or not
func (e *Endpoint) Release() {
	if e.active.Add(-1) < 0 {
		e.active.Store(0)
	}
}

// Strategy selects one endpoint per call from a pool.
// Pick returns nil when no endpoint is eligible.
type Strategy interface {
	Name() string
	Pick(pool []*Endpoint) *Endpoint
}

// eligible filters a pool down to its healthy endpoints, preserving order
func eligible(pool []*Endpoint) []*Endpoint {
	out := make([]*Endpoint, 0, len(pool))
	for _, e := range pool {
		if e.IsHealthy() {
			out = append(out, e)
		}
	}
	return out
}

// RoundRobin cycles endpoints in registration order
type RoundRobin struct {
	counter atomic.Uint64
}

// NewRoundRobin creates a round-robin strategy
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Name returns the strategy identifier
func (r *RoundRobin) Name() string { return "round_robin" }

// Pick returns the next endpoint in cycle order
func (r *RoundRobin) Pick(pool []*Endpoint) *Endpoint {
	candidates := eligible(pool)
	if len(candidates) == 0 {
		return nil
	}

	n := r.counter.Add(1) - 1
	return candidates[n%uint64(len(candidates))]
}

// WeightedRoundRobin distributes calls proportionally to endpoint weights
// using the smooth weighted round-robin algorithm: each endpoint receives
// exactly Weight selections per window of sum(weights) calls.
type WeightedRoundRobin struct {
	mu      sync.Mutex
	current map[*Endpoint]int
}

// NewWeightedRoundRobin creates a weighted round-robin strategy
func NewWeightedRoundRobin() *WeightedRoundRobin {
	return &WeightedRoundRobin{current: make(map[*Endpoint]int)}
}

// Name returns the strategy identifier
func (w *WeightedRoundRobin) Name() string { return "weighted_round_robin" }

// Pick returns the endpoint with the highest accumulated weight,
// first in declared order on ties.
func (w *WeightedRoundRobin) Pick(pool []*Endpoint) *Endpoint {
	candidates := eligible(pool)
	if len(candidates) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Prune entries for endpoints no longer in the pool
	inPool := make(map[*Endpoint]struct{}, len(candidates))
	for _, c := range candidates {
		inPool[c] = struct{}{}
	}
	for e := range w.current {
		if _, ok := inPool[e]; !ok {
			delete(w.current, e)
		}
	}

	total := 0
	var chosen *Endpoint
	for _, c := range candidates {
		total += c.Weight
		w.current[c] += c.Weight

		if chosen == nil || w.current[c] > w.current[chosen] {
			chosen = c
		}
	}

	w.current[chosen] -= total
	return chosen
}

// LeastConnections selects the endpoint with the fewest in-flight calls.
// Callers must Acquire on dispatch and Release on completion for the
// counters to mean anything.
type LeastConnections struct{}

// NewLeastConnections creates a least-connections strategy
func NewLeastConnections() *LeastConnections {
	return &LeastConnections{}
}

// Name returns the strategy identifier
func (l *LeastConnections) Name() string { return "least_connections" }

// Pick returns the eligible endpoint with the lowest active count,
// first in declared order on ties.
func (l *LeastConnections) Pick(pool []*Endpoint) *Endpoint {
	candidates := eligible(pool)
	if len(candidates) == 0 {
		return nil
	}

	chosen := candidates[0]
	for _, c := range candidates[1:] {
		if c.Active() < chosen.Active() {
			chosen = c
		}
	}

	return chosen
}
