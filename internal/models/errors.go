// ABOUTME: Error taxonomy shared by the index, pipeline, and chat layers
// ABOUTME: Typed errors are matched with errors.As, sentinels with errors.Is
package models

import (
	"errors"
	"fmt"
)

var (
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideoNotReady      = errors.New("video is not ready for chat")
	ErrAlreadyProcessing  = errors.New("video is already being processed")
	ErrMissingVideoFilter = errors.New("query filter must include video_id")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

// ConfigurationError is fatal at startup and never retried
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError builds a ConfigurationError from a formatted message
func NewConfigurationError(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
}

// DimensionError reports a vector whose length does not match the configured dimension
func DimensionError(expected, got int) error {
	return &ConfigurationError{
		Field: "vector_dimension",
		Err:   fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, expected, got),
	}
}

// RetrievalError means the index could not answer a context query
type RetrievalError struct {
	VideoID string
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for video %s: %v", e.VideoID, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// IngestionError records a single frame or chunk that could not be indexed
type IngestionError struct {
	Namespace Namespace
	RecordID  string
	Err       error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s record %s: %v", e.Namespace, e.RecordID, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// GenerationError wraps a failure of the response generator
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation via %s failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
