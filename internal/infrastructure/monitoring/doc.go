/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the
communication layer, tracking circuit breaker state, cross-service calls,
discovery health probes, and load balancer selections.

# Features

- Circuit breaker state gauges and trip counters
- Service call metrics (duration, retries, error classes)
- Health probe metrics (outcome, latency)
- Load balancer selection and failover counters
- Status API request metrics via Gin middleware

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.RecordBreakerTrip("doc-store")
	metrics.RecordProbe("doc-store", true, 12*time.Millisecond)

	// Time operations
	timer := monitoring.NewTimer(metrics, "doc-store", "fetch")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
