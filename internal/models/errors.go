package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrInvalidDownloadURL ErrorType = iota
	ErrTransferFailure
	ErrNoCompatibleInstaller
	ErrAmbiguousOrMissingInstaller
	ErrRemoteFailure
	ErrIntegrity
	ErrInvalidManifest
	ErrInstallFailed
	ErrInvalidConfig
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrInvalidDownloadURL:
		return "InvalidDownloadUrl"
	case ErrTransferFailure:
		return "TransferFailure"
	case ErrNoCompatibleInstaller:
		return "NoCompatibleInstaller"
	case ErrAmbiguousOrMissingInstaller:
		return "AmbiguousOrMissingInstaller"
	case ErrRemoteFailure:
		return "RemoteFailure"
	case ErrIntegrity:
		return "Integrity"
	case ErrInvalidManifest:
		return "InvalidManifest"
	case ErrInstallFailed:
		return "InstallFailed"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// AppGetError represents an error raised by the installation pipeline.
// Package and Source carry enough context for the caller to report it.
type AppGetError struct {
	Type    ErrorType
	Package string
	Source  string
	Err     error
}

// Error implements the error interface
func (e *AppGetError) Error() string {
	msg := fmt.Sprintf("[%s]", e.Type)
	if e.Package != "" {
		msg += " " + e.Package + ":"
	}
	if e.Source != "" {
		msg += fmt.Sprintf(" (%s)", e.Source)
	}
	if e.Err != nil {
		msg += " " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped error
func (e *AppGetError) Unwrap() error {
	return e.Err
}

// IsType reports whether any error in err's chain is an AppGetError of type t.
func IsType(err error, t ErrorType) bool {
	var ae *AppGetError
	for err != nil {
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Type == t {
			return true
		}
		err = ae.Err
	}
	return false
}

// NewError is a shorthand for building an AppGetError around a formatted cause.
func NewError(t ErrorType, source string, format string, args ...any) *AppGetError {
	return &AppGetError{
		Type:   t,
		Source: source,
		Err:    fmt.Errorf(format, args...),
	}
}
