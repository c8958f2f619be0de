package restclient

import (
	"errors"
	"fmt"
)

// ErrConfig marks construction-time configuration failures.
var ErrConfig = errors.New("restclient: invalid configuration")

// Kind classifies API errors by how the caller should react.
type Kind string

const (
	// KindClient is a 4xx response. The request is wrong; retrying will not help.
	KindClient Kind = "client"
	// KindServer is a 5xx response that survived all retries.
	KindServer Kind = "server"
	// KindTransport is a network-level failure (DNS, connect, timeout).
	KindTransport Kind = "transport"
)

// APIError is a structured failure from the remote API or the transport
// beneath it.
type APIError struct {
	Kind     Kind
	Code     string
	Message  string
	Status   int
	Endpoint string
	cause    error
}

func (e *APIError) Error() string {
	switch {
	case e.Kind == KindTransport && e.cause != nil:
		return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.cause)
	case e.Message != "":
		return fmt.Sprintf("request to %s failed (%d %s): %s", e.Endpoint, e.Status, e.Code, e.Message)
	default:
		return fmt.Sprintf("request to %s failed with status %d", e.Endpoint, e.Status)
	}
}

func (e *APIError) Unwrap() error { return e.cause }

// IsClientError reports whether err is a non-retryable 4xx API error.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindClient
}

// IsNotFound reports whether err is a 404 from the remote API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}
