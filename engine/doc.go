// Package engine provides the JavaScript engine behind the script runtime.
//
// This package wraps goja to provide compile-once, run-many semantics with a
// fresh binding scope per execution, host value marshaling, host functions
// and a console bridged to zap.
//
// # Architecture
//
// The engine package provides two main types:
//
//	GojaEngine  - Compiles source text into programs (implements scriptruntime.Compiler)
//	GojaProgram - An immutable compiled script (implements scriptruntime.Program)
//
// # Execution Flow
//
//  1. GojaEngine.Compile() parses source and returns a GojaProgram
//  2. GojaProgram.Run() enters a new goja.Runtime for the call
//  3. The console and registered hosts are installed, then each binding is
//     converted with ToValue and defined as a global
//  4. The program runs; its completion value is reduced to a string
//  5. The runtime is exited on every path, including failures
//
// # Value Marshaling
//
// ToValue converts host values to JS values. It rejects channels, complex
// numbers, unsafe pointers and maps with non-scalar keys at any depth, and
// binding names that are not JS identifiers. Structs map their fields through
// the "json" tag by default.
//
// # Results
//
//	JS completion value    Result
//	─────────────────────────────────────────
//	string                 returned as-is
//	number, boolean        JS ToString ("5", "2.5", "true")
//	bigint                 JS ToString
//	undefined, null        runtime error (type_mismatch)
//	object, array, fn      runtime error (type_mismatch)
//	symbol                 runtime error (type_mismatch)
//
// # Host Functions
//
// Register Go functions on a HostRegistry and pass it in Config.Hosts:
//
//	hosts := engine.NewHostRegistry()
//	hosts.RegisterFunc("math", "clamp", func(v, lo, hi float64) float64 {
//	    return max(lo, min(v, hi))
//	})
//
// Scripts then call math.clamp(x, 0, 1). Host functions are not sandboxed.
//
// # Thread Safety
//
// GojaEngine and GojaProgram are safe for concurrent use. The goja.Runtime
// created for a call is used by that call only.
//
// # Cancellation
//
// Run interrupts the script when its context is done. The engine imposes no
// deadline of its own.
package engine
