// Package config provides 12-factor configuration management for the
// communication layer.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: status API settings (port, host)
//   - Discovery: health-check loop interval and probe timeout
//   - Breaker: circuit-breaker thresholds per criticality class
//   - Client: retry, timeout and rate-limit defaults for outbound calls
//   - Logging: log level and output format
//   - Services: base and fallback URLs of the known logical services
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Status API on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - DISCOVERY_INTERVAL_SECONDS, PROBE_TIMEOUT_SECONDS
//   - BREAKER_CRITICAL_FAILURE_THRESHOLD, BREAKER_STANDARD_FAILURE_THRESHOLD
//   - CLIENT_TIMEOUT_SECONDS, CLIENT_MAX_RETRIES, CLIENT_RATE_LIMIT_RPS
//   - LOG_LEVEL, LOG_DEV
//   - DOC_STORE_URL, PROMPT_STORE_URL, ANALYZER_URL, SECURE_SCAN_URL,
//     ORCHESTRATOR_URL (and *_FALLBACK_URL variants)
package config
