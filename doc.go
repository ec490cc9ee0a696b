// Package scriptruntime provides a Go runtime for executing small JavaScript
// snippets with named input bindings and a string result.
//
// The library compiles each distinct script once, caches the compiled program
// by a fingerprint of its source text, and remembers scripts that failed so
// repeated doomed work is short-circuited.
//
// # Architecture Overview
//
//	scriptruntime/      Root package with the Compiler, Program and Bindings contracts
//	├── runtime/        Execution engine: Execute, Precompile, failure memo policy
//	├── cache/          Compilation cache and failure memo keyed by fingerprint
//	├── engine/         goja integration, value marshaling, host functions, console
//	├── scheduler/      Bounded worker pool and single-result futures
//	├── fingerprint/    Source text fingerprints used as cache keys
//	├── hosts/          Ready-made host capabilities (env, clock, random, terminal)
//	├── config/         YAML and environment configuration
//	├── errors/         Structured error types
//	└── cmd/run/        Command line runner and interactive REPL
//
// # Quick Start
//
//	rt := runtime.New()
//	defer rt.Close(ctx)
//
//	out, err := rt.Execute(ctx, "x + y", scriptruntime.Bindings{"x": 2, "y": 3}).Wait(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out) // "5"
//
// # Failure Memo
//
// Once compilation or execution of a script fails, every later Execute or
// Precompile of the same source fails immediately with a PreviouslyFailed
// error that embeds the original message. The memo is permanent for the
// lifetime of the Runtime unless the host calls Invalidate or Reset.
//
// # Thread Safety
//
// Runtime, the caches and compiled Programs are safe for concurrent use.
// Every execution runs in its own goja runtime with a fresh binding scope.
package scriptruntime
