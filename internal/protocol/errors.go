package protocol

import (
	"fmt"
)

// ErrorKind represents the category of protocol error that occurred
type ErrorKind int

const (
	// KindMalformedLine indicates a transport line that is not a frame (bad hex, length, marker)
	KindMalformedLine ErrorKind = iota
	// KindChecksumMismatch indicates a frame whose checksum does not validate
	KindChecksumMismatch
	// KindUnknownStatusFrame indicates a frame from the bound unit that has no known layout
	KindUnknownStatusFrame
	// KindNotPaired indicates a command was requested without a paired identity
	KindNotPaired
	// KindPairingInProgress indicates a pairing sequence is already running
	KindPairingInProgress
	// KindPairingTimeout indicates the unit did not answer within the pairing interval
	KindPairingTimeout
	// KindPairingCancelled indicates the caller cancelled a running pairing sequence
	KindPairingCancelled
	// KindHandshakeMismatch indicates a confirmation arrived from a different unit
	KindHandshakeMismatch
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedLine:
		return "Malformed Line"
	case KindChecksumMismatch:
		return "Checksum Mismatch"
	case KindUnknownStatusFrame:
		return "Unknown Status Frame"
	case KindNotPaired:
		return "Not Paired"
	case KindPairingInProgress:
		return "Pairing In Progress"
	case KindPairingTimeout:
		return "Pairing Timeout"
	case KindPairingCancelled:
		return "Pairing Cancelled"
	case KindHandshakeMismatch:
		return "Handshake Mismatch"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is a classified protocol error
type Error struct {
	Kind    ErrorKind // Category of error
	Message string    // Human-readable detail
	Line    string    // Offending transport line (frame-level errors only)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrChecksumMismatch)
// works for every checksum failure regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Recoverable reports whether the session can simply discard the input and keep polling.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindMalformedLine, KindChecksumMismatch, KindUnknownStatusFrame:
		return true
	default:
		return false
	}
}

// Sentinel errors for errors.Is checks
var (
	ErrMalformedLine      = &Error{Kind: KindMalformedLine}
	ErrChecksumMismatch   = &Error{Kind: KindChecksumMismatch}
	ErrUnknownStatusFrame = &Error{Kind: KindUnknownStatusFrame}
	ErrNotPaired          = &Error{Kind: KindNotPaired}
	ErrPairingInProgress  = &Error{Kind: KindPairingInProgress}
	ErrPairingTimeout     = &Error{Kind: KindPairingTimeout}
	ErrPairingCancelled   = &Error{Kind: KindPairingCancelled}
	ErrHandshakeMismatch  = &Error{Kind: KindHandshakeMismatch}
)

func malformed(line, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedLine, Message: fmt.Sprintf(format, args...), Line: line}
}

// NewError creates a classified error with a formatted message
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
