// Package main is the entry point for the communication layer daemon.
//
// This application mediates calls between the platform's services,
// wrapping every outbound call in a circuit breaker and keeping a live
// health view of each downstream service.
//
// The server provides:
//   - Periodic health probing of the configured services
//   - Per-service circuit breakers classed by criticality
//   - REST API for health, breaker state and breaker resets
//   - Prometheus metrics exposition
//
// Configuration:
//   - Environment variables (12-factor)
//   - Defaults for development
//
// Usage:
//
//	PORT=8000 DISCOVERY_INTERVAL_SECONDS=30 ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
