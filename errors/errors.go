package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBuild     Phase = "build"     // builder accumulation and size computation
	PhaseSerialize Phase = "serialize" // writing the byte layout
	PhaseRead      Phase = "read"      // parsing a finished image
	PhasePlace     Phase = "place"     // placement into a destination address space
)

// Kind categorizes the error
type Kind string

const (
	KindInteriorNUL  Kind = "interior_nul"
	KindMalformedEnv Kind = "malformed_env"
	KindPayloadSize  Kind = "payload_size"
	KindMisaligned   Kind = "misaligned"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindOrdering     Kind = "ordering"
	KindOverflow     Kind = "overflow"
	KindInvalidData  Kind = "invalid_data"
	KindUnsupported  Kind = "unsupported"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
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

// InteriorNUL creates an error for a NUL byte anywhere but the final position
func InteriorNUL(phase Phase, path []string, pos int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInteriorNUL,
		Path:   path,
		Detail: fmt.Sprintf("NUL byte at position %d, only allowed as final byte", pos),
		Value:  pos,
	}
}

// MalformedEnv creates an error for a string that does not match key=value
func MalformedEnv(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseBuild,
		Kind:   KindMalformedEnv,
		Path:   path,
		Detail: detail,
	}
}

// PayloadSize creates an error for a fixed-size payload of the wrong length
func PayloadSize(phase Phase, path []string, got, want int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPayloadSize,
		Path:   path,
		Detail: fmt.Sprintf("payload is %d bytes, want %d", got, want),
		Value:  got,
	}
}

// Misaligned creates an error for an insufficiently aligned destination
func Misaligned(phase Phase, addr uint64, align int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMisaligned,
		Detail: fmt.Sprintf("address 0x%x is not %d-byte aligned", addr, align),
		Value:  addr,
	}
}

// OutOfBounds creates an error for an access past the destination's end
func OutOfBounds(phase Phase, offset, length, size uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("access [%d, %d) out of bounds (size %d)", offset, offset+length, size),
		Value:  offset,
	}
}

// Ordering creates the fatal internal error for a cursor-ordering violation
func Ordering(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseSerialize,
		Kind:   KindOrdering,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Overflow creates an error for a value that does not fit a target word
func Overflow(phase Phase, value uint64, wordSize int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("value 0x%x does not fit a %d-byte word", value, wordSize),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
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
