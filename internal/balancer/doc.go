/*
Package balancer provides pluggable endpoint selection strategies.

# Overview

When a logical service resolves to multiple endpoint instances, a strategy
selects one per call. Strategies only consider healthy endpoints and break
ties deterministically by declaration order.

# Strategies

- Round-robin: cycles endpoints in registration order
- Weighted round-robin: smooth weighted selection, proportional over any
  window of sum(weights) calls
- Least-connections: endpoint with the fewest in-flight calls; callers
  acquire on dispatch and release on completion, including failures
- Failover: promotes a designated backup pool when the primary pool is
  fully unhealthy, returning to the primary as soon as any instance recovers

# Usage

	pool := []*balancer.Endpoint{
		balancer.NewEndpoint("a", "http://a:8080", 1),
		balancer.NewEndpoint("b", "http://b:8080", 2),
	}

	strategy := balancer.NewWeightedRoundRobin()
	endpoint := strategy.Pick(pool)
	if endpoint == nil {
		// no healthy instance
	}

	endpoint.Acquire()
	defer endpoint.Release()
*/
package balancer
