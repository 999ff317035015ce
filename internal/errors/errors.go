package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrTransport      = errors.New("transport error")
	ErrUnsupported    = errors.New("operation not supported")
	ErrNotFound       = errors.New("source not found")
	ErrStale          = errors.New("device state is stale")
	ErrDeviceNotFound = errors.New("device not found")
	ErrTimeout        = errors.New("request timeout")
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Kind names used in machine-readable output.
const (
	KindTransport   = "transport"
	KindUnsupported = "unsupported"
	KindNotFound    = "not_found"
	KindStale       = "stale"
	KindOther       = "error"
)

// TransportError wraps a network, timeout, or malformed-response failure.
type TransportError struct {
	Op     string
	Device string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("%s %s: %v", e.Device, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports every TransportError as ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Transport wraps err as a TransportError. Nil stays nil.
func Transport(op, device string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Device: device, Err: err}
}

// OpError records a control operation rejected locally.
type OpError struct {
	Op     string
	Kind   error
	Reason string
}

func (e *OpError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *OpError) Unwrap() error {
	return e.Kind
}

// Unsupported returns an ErrUnsupported for op.
func Unsupported(op, reason string) error {
	return &OpError{Op: op, Kind: ErrUnsupported, Reason: reason}
}

// NotFound returns an ErrNotFound for op.
func NotFound(op, reason string) error {
	return &OpError{Op: op, Kind: ErrNotFound, Reason: reason}
}

// Stale returns an ErrStale for op.
func Stale(op, reason string) error {
	return &OpError{Op: op, Kind: ErrStale, Reason: reason}
}

// Kind classifies err into one of the Kind constants.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDeviceNotFound):
		return KindNotFound
	case errors.Is(err, ErrStale):
		return KindStale
	case errors.Is(err, ErrTransport), errors.Is(err, ErrTimeout):
		return KindTransport
	default:
		return KindOther
	}
}

// LinkError wraps an error with a user-friendly suggestion.
type LinkError struct {
	Err        error
	Suggestion string
}

func (e *LinkError) Error() string {
	return e.Err.Error()
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &LinkError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var linkErr *LinkError
	if errors.As(err, &linkErr) && linkErr.Suggestion != "" {
		return linkErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrUnsupported) {
		return "The active source controls playback; change it from the app or device that is casting"
	}

	if errors.Is(err, ErrNotFound) {
		return "Run 'linkctl inputs' to see the inputs this device reports"
	}

	if errors.Is(err, ErrStale) {
		return "The device has stopped answering. Check that it is powered on and reachable"
	}

	if errors.Is(err, ErrDeviceNotFound) || strings.Contains(errStr, "device not found") {
		return "Run 'linkctl config show' to see configured devices"
	}

	if errors.Is(err, ErrTransport) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection refused") {
		return "Check that the speaker is on the same network and try again"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'linkctl config validate' to check your configuration"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
