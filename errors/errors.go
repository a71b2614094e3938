package errors

import (
	"fmt"
	"io/fs"
	"strings"
)

// Phase indicates which runtime call the error occurred in
type Phase string

const (
	PhaseOpen    Phase = "open"    // handle resolution
	PhaseRead    Phase = "read"    // reader
	PhaseWrite   Phase = "write"   // writer
	PhaseSeek    Phase = "seek"    // absolute seek
	PhaseLength  Phase = "length"  // file length query
	PhaseClose   Phase = "close"   // handle release
	PhaseRemove  Phase = "remove"  // path unlink
	PhaseConsole Phase = "console" // character primitives
	PhaseProfile Phase = "profile" // build profile loading
	PhaseHost    Phase = "host"    // guest ABI marshalling
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupported    Kind = "unsupported"
	KindNoFilesystem   Kind = "no_filesystem"
	KindNotReady       Kind = "not_ready"
	KindInvalidHandle  Kind = "invalid_handle"
	KindWrongDirection Kind = "wrong_direction"
	KindDelegate       Kind = "delegate"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidInput   Kind = "invalid_input"
	KindNotFound       Kind = "not_found"
	KindClosed         Kind = "closed"
)

// Kind-only sentinels. They match errors of the same Kind in any Phase.
var (
	ErrUnsupported    = &Error{Kind: KindUnsupported}
	ErrNoFilesystem   = &Error{Kind: KindNoFilesystem}
	ErrNotReady       = &Error{Kind: KindNotReady}
	ErrInvalidHandle  = &Error{Kind: KindInvalidHandle}
	ErrWrongDirection = &Error{Kind: KindWrongDirection}
	ErrDelegate       = &Error{Kind: KindDelegate}
	ErrOutOfBounds    = &Error{Kind: KindOutOfBounds}
	ErrInvalidInput   = &Error{Kind: KindInvalidInput}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrClosed         = &Error{Kind: KindClosed}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Target string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Target != "" {
		b.WriteString(" on ")
		b.WriteString(e.Target)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Target sets the handle or path the error refers to
func (b *Builder) Target(target string) *Builder {
	b.err.Target = target
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

func handleTarget(h int) string {
	return fmt.Sprintf("handle %d", h)
}

// Unsupported creates an error for a capability not present in this build
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NoFilesystem creates an error for a file operation without a filesystem
func NoFilesystem(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNoFilesystem,
		Detail: "no filesystem in this build",
	}
}

// NotReady creates an error for a collaborator used before initialization
func NotReady(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotReady,
		Target: what,
		Detail: "not initialized",
	}
}

// InvalidHandle creates an invalid handle error
func InvalidHandle(phase Phase, h int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Target: handleTarget(h),
		Value:  h,
	}
}

// WrongDirection creates an error for reading an output-only or writing
// an input-only stream
func WrongDirection(phase Phase, h int, stream string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindWrongDirection,
		Target: handleTarget(h),
		Detail: stream,
		Value:  h,
	}
}

// Delegate wraps a failure reported by a collaborator
func Delegate(phase Phase, target string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDelegate,
		Target: target,
		Cause:  cause,
	}
}

// DelegateHandle wraps a collaborator failure on a handle
func DelegateHandle(phase Phase, h int, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDelegate,
		Target: handleTarget(h),
		Value:  h,
		Cause:  cause,
	}
}

// OutOfBounds creates an out of bounds error for a memory or file range
func OutOfBounds(phase Phase, what string, offset, length int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Target: what,
		Detail: fmt.Sprintf("offset %d out of bounds (length %d)", offset, length),
		Value:  offset,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Target: name,
		Detail: what + " not found",
	}
}

// Closed creates an error for use of a closed file or table. It wraps
// fs.ErrClosed.
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Target: what,
		Cause:  fs.ErrClosed,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
