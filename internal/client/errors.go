package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ServiceClientError is the generic failure class for a cross-service
// call; the concrete taxonomy types embed it.
type ServiceClientError struct {
	Service   string
	Operation string
	Message   string
}

func (e *ServiceClientError) Error() string {
	return fmt.Sprintf("service %q operation %q failed: %s", e.Service, e.Operation, e.Message)
}

// ServiceUnavailableError indicates the service could not be reached at
// all: connection refused, DNS failure, or no address to call.
type ServiceUnavailableError struct {
	ServiceClientError
}

// ServiceTimeoutError indicates the call exceeded its deadline
type ServiceTimeoutError struct {
	ServiceClientError
}

// ServiceResponseError indicates the service answered with a non-2xx status
type ServiceResponseError struct {
	ServiceClientError
	StatusCode int
}

func (e *ServiceResponseError) Error() string {
	return fmt.Sprintf("service %q operation %q returned HTTP %d: %s",
		e.Service, e.Operation, e.StatusCode, e.Message)
}

func unavailable(service, operation, message string) *ServiceUnavailableError {
	return &ServiceUnavailableError{ServiceClientError{Service: service, Operation: operation, Message: message}}
}

func timeout(service, operation, message string) *ServiceTimeoutError {
	return &ServiceTimeoutError{ServiceClientError{Service: service, Operation: operation, Message: message}}
}

func responseError(service, operation string, status int, message string) *ServiceResponseError {
	return &ServiceResponseError{
		ServiceClientError: ServiceClientError{Service: service, Operation: operation, Message: message},
		StatusCode:         status,
	}
}

func clientError(service, operation, message string) *ServiceClientError {
	return &ServiceClientError{Service: service, Operation: operation, Message: message}
}

// classify maps a raw transport error onto the taxonomy
func classify(service, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return timeout(service, operation, err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeout(service, operation, err.Error())
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return unavailable(service, operation, err.Error())
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return unavailable(service, operation, err.Error())
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return clientError(service, operation, err.Error())
}

// isTransient reports whether an error class is worth retrying
func isTransient(err error) bool {
	var unavailableErr *ServiceUnavailableError
	var timeoutErr *ServiceTimeoutError
	return errors.As(err, &unavailableErr) || errors.As(err, &timeoutErr)
}

// errorClass names the taxonomy class for metrics labels
func errorClass(err error) string {
	var (
		unavailableErr *ServiceUnavailableError
		timeoutErr     *ServiceTimeoutError
		respErr        *ServiceResponseError
		genericErr     *ServiceClientError
	)

	switch {
	case errors.As(err, &unavailableErr):
		return "unavailable"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &respErr):
		return "response"
	case errors.As(err, &genericErr):
		return "client"
	default:
		return "other"
	}
}
