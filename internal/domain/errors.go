package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a barcode fails the shape check
	ErrValidation = errors.New("invalid barcode")

	// ErrNotFound is returned when a data source has no entry for the barcode
	ErrNotFound = errors.New("product not found")

	// ErrRateLimited is returned when an upstream answers 429
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrRetryableUpstream is returned for bad-request-class answers that may succeed later
	ErrRetryableUpstream = errors.New("upstream rejected request")

	// ErrUpstreamServer is returned when an upstream answers with a 5xx status
	ErrUpstreamServer = errors.New("upstream server error")

	// ErrConnection is returned when an upstream cannot be reached or answers unexpectedly
	ErrConnection = errors.New("upstream connection error")

	// ErrTimeout is returned when an upstream call exceeds its deadline
	ErrTimeout = errors.New("upstream timeout")

	// ErrCredentialMissing is returned when a stage has no credential configured
	ErrCredentialMissing = errors.New("credential not configured")

	// ErrUnavailable is returned when a local capability is missing from the runtime
	ErrUnavailable = errors.New("capability unavailable")

	// ErrProcessing is returned when image decoding, enhancement or extraction fails
	ErrProcessing = errors.New("processing failed")

	// ErrEmptyBatch is returned when a batch has no barcodes
	ErrEmptyBatch = errors.New("no barcodes provided")

	// ErrArchiveNotFound is returned when an archive reference is unknown or already consumed
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// ProviderError is the failed outcome of one adapter call.
// Kind is one of the sentinel errors above and is what errors.Is matches against.
type ProviderError struct {
	Source    string
	Kind      error
	Retryable bool
	Message   string
	Err       error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, msg)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewProviderError builds a non-retryable provider error.
func NewProviderError(source string, kind error, message string, cause error) *ProviderError {
	return &ProviderError{Source: source, Kind: kind, Message: message, Err: cause}
}

// NewRetryableError builds a provider error eligible for the bounded retry.
func NewRetryableError(source string, kind error, message string) *ProviderError {
	return &ProviderError{Source: source, Kind: kind, Retryable: true, Message: message}
}

// IsRetryable reports whether err is a ProviderError flagged as retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// IsSkip reports whether err means a stage was skipped rather than failed.
func IsSkip(err error) bool {
	return errors.Is(err, ErrCredentialMissing) || errors.Is(err, ErrUnavailable)
}

// Reason returns the human-readable message of a provider error, or err.Error().
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}
