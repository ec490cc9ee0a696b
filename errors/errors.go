package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile  Phase = "compile"  // source to program
	PhaseBind     Phase = "bind"     // host value to engine value
	PhaseRuntime  Phase = "runtime"  // program evaluation
	PhaseCache    Phase = "cache"    // compilation cache and failure memo
	PhaseHost     Phase = "host"     // host function registration
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseSchedule Phase = "schedule" // worker pool admission
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax           Kind = "syntax"
	KindConversion       Kind = "conversion"
	KindException        Kind = "exception"
	KindTypeMismatch     Kind = "type_mismatch"
	KindInterrupted      Kind = "interrupted"
	KindPreviouslyFailed Kind = "previously_failed"
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindRegistration     Kind = "registration"
	KindClosed           Kind = "closed"
	KindInvalidData      Kind = "invalid_data"
)

// Sentinels for the error taxonomy surfaced to hosts. A sentinel without a
// Kind matches every error of its Phase.
var (
	// ErrCompilation matches malformed scripts.
	ErrCompilation = &Error{Phase: PhaseCompile}

	// ErrBindingConversion matches bound values that have no engine representation.
	ErrBindingConversion = &Error{Phase: PhaseBind}

	// ErrRuntime matches scripts that threw or returned a non-string value.
	ErrRuntime = &Error{Phase: PhaseRuntime}

	// ErrPreviouslyFailed matches short-circuited attempts on a memoized failure.
	ErrPreviouslyFailed = &Error{Phase: PhaseCache, Kind: KindPreviouslyFailed}

	// ErrClosed matches work submitted after shutdown.
	ErrClosed = &Error{Phase: PhaseSchedule, Kind: KindClosed}
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	EngineType string
	Detail     string
	Path       []string
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

	if e.GoType != "" || e.EngineType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.EngineType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", JS type ")
			b.WriteString(e.EngineType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("JS type ")
			b.WriteString(e.EngineType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.EngineType != "" {
			b.WriteString(" - ")
		} else {
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

// Is reports whether target matches this error.
// An empty Kind on target matches any kind within the same phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Phase != t.Phase {
		return false
	}
	return t.Kind == "" || e.Kind == t.Kind
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

// Path sets the binding path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// EngineType sets the script-side type name
func (b *Builder) EngineType(t string) *Builder {
	b.err.EngineType = t
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

// Compilation creates a compilation error for a malformed script
func Compilation(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindSyntax,
		Detail: "compile script",
		Cause:  cause,
	}
}

// Unconvertible creates a binding conversion error
func Unconvertible(path []string, goType, detail string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindConversion,
		Path:   path,
		GoType: goType,
		Detail: detail,
	}
}

// Exception creates a runtime error for a script that threw
func Exception(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindException,
		Detail: "run script",
		Cause:  cause,
	}
}

// ResultMismatch creates a runtime error for a completion value that is not
// reducible to a string
func ResultMismatch(engineType string) *Error {
	return &Error{
		Phase:      PhaseRuntime,
		Kind:       KindTypeMismatch,
		EngineType: engineType,
		Detail:     "script result is not reducible to a string",
	}
}

// Interrupted creates a runtime error for an evaluation stopped by its context
func Interrupted(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInterrupted,
		Detail: "script interrupted",
		Cause:  cause,
	}
}

// PreviouslyFailed creates the short-circuit error carrying the stored message
func PreviouslyFailed(fingerprint, message string) *Error {
	return &Error{
		Phase:  PhaseCache,
		Kind:   KindPreviouslyFailed,
		Detail: "previously failed: " + message,
		Value:  fingerprint,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, engineType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindTypeMismatch,
		Path:       path,
		GoType:     goType,
		EngineType: engineType,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
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

// Registration creates a registration error
func Registration(phase Phase, namespace, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s.%s", namespace, name),
		Cause:  cause,
	}
}

// Closed creates an error for work submitted to a closed scheduler
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseSchedule,
		Kind:   KindClosed,
		Detail: what + " is closed",
	}
}

// ParseFailed creates a configuration parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
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
