/*
Package resilience provides per-service circuit breakers for graceful degradation.

# Overview

This package implements the circuit breaker pattern to prevent cascading
failures when downstream services become unavailable or slow, plus a
registry that owns one breaker per logical service with criticality-based
threshold defaults.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Configurable failure/success thresholds and recovery timeout
- Optional failure filter so only qualifying errors trip the breaker
- State change callbacks for logging and metrics
- Thread-safe operations
- Registry with bulk status and reset

# Usage

	// Create a circuit breaker
	breaker := resilience.New("doc-store", resilience.Settings{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		RecoveryTimeout:  60 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// Execute request through breaker
	result, err := breaker.Call(func() (interface{}, error) {
		return client.Fetch()
	})

	// Or through a registry keyed by service name
	registry := resilience.NewRegistry(services, logger)
	result, err = registry.ExecuteWithBreaker("doc-store", operation)

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately with *OpenError
- Half-Open: Testing if service recovered before fully closing

# Pattern

The circuit breaker transitions between states based on call outcomes:

	Closed --[failures >= threshold]-> Open --[recovery timeout]-> Half-Open --[successes >= threshold]-> Closed
	                                                                  |
	                                                              [failure]
	                                                                  |
	                                                                  v
	                                                                Open
*/
package resilience
