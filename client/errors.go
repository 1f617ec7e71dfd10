package client

import (
	"fmt"
	"net/http"
)

// AuthError reports a rejected OAuth grant or an otherwise unusable
// token response.
type AuthError struct {
	Status      int
	Description string
}

func (e *AuthError) Error() string {
	if e.Status != 0 && e.Description != "" {
		return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Description)
	}
	if e.Description != "" {
		return "authentication failed: " + e.Description
	}
	if e.Status != 0 {
		return fmt.Sprintf("authentication failed (status %d)", e.Status)
	}
	return "authentication failed"
}

// TransportError reports that no response was received at all
// (connection refused, DNS failure, timeout).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: no response from instance: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError reports a non-2xx response from the instance. Message is
// extracted from the structured error body when present, otherwise it
// is the HTTP status text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("instance returned %d: %s", e.Status, msg)
}

// RequestError reports a locally malformed request before anything was
// sent.
type RequestError struct {
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }
