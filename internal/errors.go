package internal

import "fmt"

// StorageError represents errors reading or writing the key-value store
type StorageError struct {
	Key string
	Op  string // "open", "get", "set", "delete"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents persisted data that could not be decoded.
// It is logged and the value treated as absent, never shown to the user.
type ParseError struct {
	Source string // "store", "config"
	Key    string // storage key or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RequestFailedError is the single failure kind surfaced by the backend
// gateway: network errors, non-2xx responses and undecodable bodies.
type RequestFailedError struct {
	Op         string // "chat", "memory", "documents", "ping"
	StatusCode int    // 0 when no response was received
	Message    string
	Err        error
}

func (e *RequestFailedError) Error() string {
	return e.Message
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
