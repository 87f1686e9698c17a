package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the request credential does not match the configured secret
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidPrompt is returned for an empty prompt or one that cannot be stored
	ErrInvalidPrompt = errors.New("prompt is required")
)

// UpstreamError is any failure of the generation backend call
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("upstream generation failed: status %d: %s: %v", e.StatusCode, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("upstream generation failed: status %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("upstream generation failed: %v", e.Err)
	default:
		return "upstream generation failed: " + e.Message
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StorageError is any failure to upload an artifact
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("artifact storage failed: %v", e.Err)
	}
	return fmt.Sprintf("artifact storage failed for %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PersistenceError is any failure reading or writing generation records
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
