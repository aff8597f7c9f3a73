package qqmusic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResponse is returned when the catalog replies with something
	// that is not the expected JSON envelope.
	ErrInvalidResponse = errors.New("qqmusic: invalid response")

	// ErrNoCredential is returned by operations that need a credential.
	ErrNoCredential = errors.New("qqmusic: credential required")

	// ErrNotRefreshable is returned by Refresh when the credential lacks a
	// refresh key or refresh token.
	ErrNotRefreshable = errors.New("qqmusic: credential cannot be refreshed")

	// ErrTrackNotFound is returned by TrackInfo for unknown ids.
	ErrTrackNotFound = errors.New("qqmusic: track not found")
)

// APIError is a non-zero result code returned by a catalog module call.
type APIError struct {
	Module string
	Method string
	Code   int64
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qqmusic: %s.%s returned code %d", e.Module, e.Method, e.Code)
}
