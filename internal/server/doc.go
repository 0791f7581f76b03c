// Package server provides the HTTP status API for the communication layer.
//
// This package wires the runtime components together:
//   - HTTP routing with Gin framework
//   - Middleware stack (recovery, request metrics)
//   - Service health views from the discovery locator
//   - Circuit breaker inspection and reset endpoints
//   - Prometheus metrics exposition
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger (production or development)
//  3. Start the discovery loop
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv := server.New(cfg, logger, metrics, locator, breakers)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
