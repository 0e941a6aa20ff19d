package chat

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage is returned for blank input; no request is made.
	ErrEmptyMessage = errors.New("empty message")
	// ErrUnreachable wraps DNS and connection failures.
	ErrUnreachable = errors.New("server unreachable")
	// ErrEmptyResponse means a 2xx reply carried neither response nor error.
	ErrEmptyResponse = errors.New("empty response from server")
	// ErrMalformedResponse means a 2xx reply was not the expected JSON.
	ErrMalformedResponse = errors.New("malformed response from server")
)

// BackendError carries the error text the backend put in its reply.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
}

// HTTPError is a failing status without a usable error body.
type HTTPError struct {
	Status int
	Text   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Status, e.Text)
}

// Describe returns the wording shown to the user for a failed Send.
func Describe(err error) string {
	var backendErr *BackendError
	var httpErr *HTTPError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &backendErr):
		return "Server error: " + backendErr.Message
	case errors.As(err, &httpErr):
		return fmt.Sprintf("Server error: %d %s", httpErr.Status, httpErr.Text)
	case errors.Is(err, ErrUnreachable):
		return "Server unreachable. Is the backend running?"
	case errors.Is(err, ErrEmptyResponse):
		return "The server sent an empty response."
	case errors.Is(err, ErrMalformedResponse):
		return "The server sent a response I could not read."
	case errors.Is(err, ErrEmptyMessage):
		return "Nothing to send."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer."
	}
	return "Network error (" + err.Error() + ")"
}
