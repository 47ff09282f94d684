// Package apperr holds the error types shared by the upload client and server.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidState   = errors.New("invalid state")
	ErrUploadMismatch = errors.New("upload id does not match video")
	ErrStorage        = errors.New("storage failure")
	ErrMissingETag    = errors.New("missing ETag header")
	ErrETagMismatch   = errors.New("ETag does not match part checksum")
)

// ConnectivityError means the target could not be reached at all.
type ConnectivityError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: cannot reach %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ServerRejectionError is a non-success response to the init request.
type ServerRejectionError struct {
	StatusCode int
	Body       string
}

func (e *ServerRejectionError) Error() string {
	return fmt.Sprintf("upload init rejected (%d): %s", e.StatusCode, e.Body)
}

// TransferError identifies the part whose transfer failed. StatusCode is 0 when no response was received.
type TransferError struct {
	PartNumber int
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("part %d upload failed with status %d: %v", e.PartNumber, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("part %d upload failed: %v", e.PartNumber, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// ConfirmationError is a non-success response to the confirm request.
type ConfirmationError struct {
	StatusCode int
	Body       string
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("confirm failed (%d): %s", e.StatusCode, e.Body)
}

// HTTPError is returned by handlers to choose the response status.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}
