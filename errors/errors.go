package errors

import (
	"fmt"
	"strings"
)

// Class categorizes the error by recovery policy
type Class string

const (
	// ClassTransport covers payload fetch and module load failures.
	// Fatal to the current bootstrap attempt, retryable from scratch.
	ClassTransport Class = "transport"

	// ClassProtocol covers unknown message tags and malformed
	// payloads. Logged and ignored, non-fatal.
	ClassProtocol Class = "protocol"

	// ClassValidation covers codec shape mismatches and matrix
	// dimension errors. Caller falls back to defaults, non-fatal.
	ClassValidation Class = "validation"

	// ClassEngine covers failures inside the audio module while
	// applying a parameter. Caught per message, reported via
	// processing_error, rendering keeps running.
	ClassEngine Class = "engine"
)

// Stage indicates where in the session lifecycle the error occurred
type Stage string

const (
	StageFetch  Stage = "fetch"  // payload retrieval
	StageInit   Stage = "init"   // module instantiation
	StageApply  Stage = "apply"  // control message application
	StageRender Stage = "render" // block rendering
	StageEncode Stage = "encode" // state/matrix serialization
	StageDecode Stage = "decode" // state/matrix deserialization
	StageStore  Stage = "store"  // patch persistence
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause  error
	Class  Class
	Stage  Stage
	OpName string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Class))
	b.WriteByte('/')
	b.WriteString(string(e.Stage))
	b.WriteString("] ")

	if e.OpName != "" {
		b.WriteString(e.OpName)
	}

	if e.Detail != "" {
		if e.OpName != "" {
			b.WriteString(": ")
		}
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

// Is reports whether target matches this error. Two Errors match when
// their Class and Stage agree, so callers can test policy with
// sentinel values like &Error{Class: ClassTransport, Stage: StageFetch}.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Class == t.Class && e.Stage == t.Stage
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(class Class, stage Stage) *Builder {
	return &Builder{
		err: Error{
			Class: class,
			Stage: stage,
		},
	}
}

// Op sets the operation name
func (b *Builder) Op(name string) *Builder {
	b.err.OpName = name
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

// Transport creates a transport-class error wrapping cause
func Transport(stage Stage, op string, cause error) *Error {
	return &Error{Class: ClassTransport, Stage: stage, OpName: op, Cause: cause}
}

// Protocol creates a protocol-class error
func Protocol(stage Stage, detail string, args ...any) *Error {
	return &Error{Class: ClassProtocol, Stage: stage, Detail: fmt.Sprintf(detail, args...)}
}

// Validation creates a validation-class error
func Validation(stage Stage, detail string, args ...any) *Error {
	return &Error{Class: ClassValidation, Stage: stage, Detail: fmt.Sprintf(detail, args...)}
}

// Engine creates an engine-class error wrapping cause
func Engine(stage Stage, op string, cause error) *Error {
	return &Error{Class: ClassEngine, Stage: stage, OpName: op, Cause: cause}
}

// Wrap attaches class and stage to an existing error
func Wrap(class Class, stage Stage, cause error, op string) *Error {
	return &Error{Class: class, Stage: stage, OpName: op, Cause: cause}
}

// ClassOf reports the Class of err, or empty string for foreign errors
func ClassOf(err error) Class {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Class
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
