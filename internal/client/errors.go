package client

import (
	"fmt"
)

// User-facing notification texts for recovered transport failures.
const (
	UploadFailedMessage    = "Error uploading dataset. Please try again."
	QueryFailedMessage     = "Error processing query. Please try again."
	BootstrapFailedMessage = "Error loading datasets."
)

// TransportError describes a failed exchange with the analytics service:
// the service was unreachable, answered with a non-2xx status, or sent a body
// that could not be decoded.
type TransportError struct {
	// Op is the client operation, e.g. "upload" or "query"
	Op string
	// StatusCode is the HTTP status, or 0 when no response was received
	StatusCode int
	// Message is the human-readable detail
	Message string
	// Err is the underlying cause, if any
	Err error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TransferError is returned when an upload fails. No dataset was registered.
type TransferError struct {
	*TransportError
}

// UserMessage returns the text shown to the user.
func (e *TransferError) UserMessage() string { return UploadFailedMessage }

func (e *TransferError) Unwrap() error { return e.TransportError }

// BootstrapError is returned when the initial dataset list cannot be fetched.
// Callers are expected to continue with an empty list.
type BootstrapError struct {
	*TransportError
}

// UserMessage returns the text shown to the user.
func (e *BootstrapError) UserMessage() string { return BootstrapFailedMessage }

func (e *BootstrapError) Unwrap() error { return e.TransportError }

// QueryTransportError is returned when a query could not be exchanged with the service.
// A structured analysis failure is not an error; it arrives as a QueryResult.
type QueryTransportError struct {
	*TransportError
}

// UserMessage returns the text shown to the user.
func (e *QueryTransportError) UserMessage() string { return QueryFailedMessage }

func (e *QueryTransportError) Unwrap() error { return e.TransportError }

// UserMessenger is implemented by errors that carry a user-facing notification.
type UserMessenger interface {
	error
	UserMessage() string
}
