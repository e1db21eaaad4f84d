package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrUnsupported indicates a file format or operation is not supported
	ErrUnsupported = errors.New("unsupported")

	// ErrUnavailable indicates a source item is deleted, private or geo-blocked
	ErrUnavailable = errors.New("source unavailable")

	// ErrConflict indicates a destination file conflict
	ErrConflict = errors.New("destination conflict")

	// ErrUnresolved indicates no metadata provider produced a candidate
	ErrUnresolved = errors.New("metadata unresolved")

	// ErrNoCredentials indicates a provider's credentials are not configured
	ErrNoCredentials = errors.New("credentials not configured")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
