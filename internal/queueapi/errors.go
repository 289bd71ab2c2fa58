package queueapi

import (
	"fmt"
	"net/http"
	"strings"
)

// NetworkError reports a request that never completed: DNS failure, refused
// connection, reset, or a cancelled context.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TransportError reports a response whose status is outside the 2xx range.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Reason     string
}

func (e *TransportError) Error() string {
	reason := strings.TrimSpace(e.Reason)
	if reason == "" {
		reason = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d %s", e.Method, e.URL, e.StatusCode, reason)
}
