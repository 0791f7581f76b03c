// Package client provides the resilient call-site facade for cross-service calls.
//
// A Client binds one logical service name to its circuit breaker in the
// registry and to the service locator. Every call resolves a live
// address, executes a named operation from a typed operation table
// through the breaker, retries transient failure classes with
// exponential backoff and jitter, and surfaces a typed error taxonomy:
//
//   - *resilience.OpenError: rejected without network I/O, circuit open
//   - *ServiceUnavailableError: connection refused, DNS failure, no address
//   - *ServiceTimeoutError: deadline exceeded
//   - *ServiceResponseError: non-2xx response with status code attached
//   - *ServiceClientError: anything else
//
// Built on go-resty/resty over retryablehttp's pooled transport:
//   - Context-based cancellation, observed between retry attempts
//   - Optional per-client rate limiting
//   - Optional load-balanced endpoint pools
//
// Example Usage:
//
//	c, err := client.New("doc-store", registry, locator, map[string]client.Operation{
//		"fetch": client.Get("/documents"),
//		"store": client.Post("/documents"),
//	}, logger)
//	resp, err := c.ExecuteRequest(ctx, "fetch", map[string]interface{}{"id": "42"})
package client
