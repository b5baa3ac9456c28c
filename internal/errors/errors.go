package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the scout exploration system
type ErrorType string

const (
	// Root structural failures, fatal for a whole exploration
	ErrorTypeRootNotFound ErrorType = "root_not_found"
	ErrorTypeRootNotDir   ErrorType = "root_not_dir"
	ErrorTypeRootUnsafe   ErrorType = "root_unsafe"

	// Per-entry file errors, logged and skipped
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeFileIO       ErrorType = "file_io"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Analyzer failures
	ErrorTypeAnalyzer ErrorType = "analyzer"
)

// ErrUnsafePath is returned when a path resolves outside its root.
var ErrUnsafePath = stderrors.New("path resolves outside root")

// ExploreError is a structural failure surfaced before any traversal starts.
type ExploreError struct {
	Type       ErrorType
	Root       string
	Underlying error
	Timestamp  time.Time
}

// NewExploreError creates a new exploration error for root
func NewExploreError(errType ErrorType, root string, err error) *ExploreError {
	return &ExploreError{
		Type:       errType,
		Root:       root,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ExploreError) Error() string {
	return fmt.Sprintf("explore %s: %s: %v", e.Root, e.Type, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ExploreError) Unwrap() error {
	return e.Underlying
}

// FileError represents a per-entry file error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error, classifying the underlying cause
func NewFileError(op, path string, err error) *FileError {
	return &FileError{
		Type:       classifyFileError(err),
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func classifyFileError(err error) ErrorType {
	switch {
	case stderrors.Is(err, fs.ErrPermission):
		return ErrorTypePermission
	case stderrors.Is(err, fs.ErrNotExist):
		return ErrorTypeFileNotFound
	default:
		return ErrorTypeFileIO
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// IsTransient reports whether the error is a per-entry condition a walk
// skips over (permission denied, file vanished, read failure).
func (e *FileError) IsTransient() bool {
	return e.Type != ErrorTypeFileTooLarge
}

// AnalyzerError wraps a failure returned by an analyzer for one file
type AnalyzerError struct {
	Path       string
	Underlying error
}

// NewAnalyzerError creates a new analyzer error
func NewAnalyzerError(path string, err error) *AnalyzerError {
	return &AnalyzerError{Path: path, Underlying: err}
}

// Error implements the error interface
func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("analyzer failed for %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *AnalyzerError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config error for field %s: %v", e.Field, e.Underlying)
	}
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nil entries
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// IsType reports whether any error in err's chain carries the given type.
func IsType(err error, errType ErrorType) bool {
	var ee *ExploreError
	if stderrors.As(err, &ee) && ee.Type == errType {
		return true
	}
	var fe *FileError
	if stderrors.As(err, &fe) && fe.Type == errType {
		return true
	}
	var ce *ConfigError
	if stderrors.As(err, &ce) && errType == ErrorTypeConfig {
		return true
	}
	var ae *AnalyzerError
	return stderrors.As(err, &ae) && errType == ErrorTypeAnalyzer
}
