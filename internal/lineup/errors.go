package lineup

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// FetchKind categorizes lineup fetch failures.
type FetchKind int

const (
	// KindUnreachable indicates the device could not be contacted
	// (connection refused, no route, DNS failure).
	KindUnreachable FetchKind = iota
	// KindTimeout indicates the request exceeded its deadline.
	KindTimeout
	// KindMalformedResponse indicates the device answered with a body
	// that is not a valid lineup document.
	KindMalformedResponse
)

// String returns a human-readable name for the fetch kind
func (k FetchKind) String() string {
	switch k {
	case KindUnreachable:
		return "Unreachable"
	case KindTimeout:
		return "Timeout"
	case KindMalformedResponse:
		return "MalformedResponse"
	default:
		return fmt.Sprintf("FetchKind(%d)", int(k))
	}
}

// FetchError is a classified failure from a lineup or discover fetch.
// Every kind is retryable on the next reconciliation cycle; the kind only
// controls how the failure is reported.
type FetchError struct {
	Kind    FetchKind // Category of failure
	Address string    // Device address (for context)
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Message, e.Address, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Address)
}

// Unwrap returns the underlying error for error chain inspection
func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError extracts a *FetchError from an error chain, or nil.
func AsFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}

// classifyTransportError maps an http.Client error onto a FetchError.
func classifyTransportError(err error, address string) *FetchError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &FetchError{
			Kind:    KindTimeout,
			Address: address,
			Message: "request timed out",
			Err:     err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &FetchError{
			Kind:    KindTimeout,
			Address: address,
			Message: "request timed out",
			Err:     err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{
			Kind:    KindTimeout,
			Address: address,
			Message: "request timed out",
			Err:     err,
		}
	}

	message := "device unreachable"
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		message = "connection refused"
	case errors.Is(err, syscall.EHOSTUNREACH):
		message = "host unreachable"
	case errors.Is(err, syscall.ENETUNREACH):
		message = "network unreachable"
	}

	return &FetchError{
		Kind:    KindUnreachable,
		Address: address,
		Message: message,
		Err:     err,
	}
}
