/*
Package discovery provides health-aware service location.

# Overview

This package maintains a live health view of every known logical service
and resolves logical names to reachable base addresses, with optional
fallback addresses for degraded services.

# Features

- Periodic concurrent health probing with bounded per-probe timeouts
- Context-propagated cancellation of in-flight probes on stop
- Fallback resolution for unhealthy or unknown services
- Bounded per-service probe history for observability
- Probe failures recorded as data, never raised to callers

# Usage

	locator, err := discovery.NewLocator(map[string]discovery.ServiceConfig{
		"doc-store": {URL: "http://doc-store:8080"},
		"analyzer":  {URL: "http://analyzer:8081", FallbackURL: "http://analyzer-backup:8081"},
	}, 5*time.Second, logger)
	if err != nil {
		return err
	}

	locator.StartDiscovery(30 * time.Second)
	defer locator.StopDiscovery()

	url := locator.Resolve("doc-store", "")
	if locator.IsAvailable("doc-store") {
		// safe to call
	}

# Health Probe Contract

Every participating service exposes GET /health returning HTTP 200,
optionally with a JSON body {status, version, uptime_seconds}. Any other
status, error, or timeout marks the service unhealthy.
*/
package discovery
