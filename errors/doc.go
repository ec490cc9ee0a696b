// Package errors provides structured error types for the script runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: binding path, Go/JS type names, and cause chain.
//
// Hosts classify failures with errors.Is against the taxonomy sentinels:
//
//	errors.Is(err, errors.ErrCompilation)       // malformed script
//	errors.Is(err, errors.ErrBindingConversion) // bound value has no JS representation
//	errors.Is(err, errors.ErrRuntime)           // script threw or returned a non-string
//	errors.Is(err, errors.ErrPreviouslyFailed)  // failure memo short-circuit
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBind, errors.KindConversion).
//		Path("args", "ch").
//		GoType("chan int").
//		Detail("channels have no JS representation").
//		Build()
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
