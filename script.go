package scriptruntime

import "context"

// Bindings maps parameter names to host values visible to a running script.
// The engine reads it once per execution and never mutates it.
type Bindings map[string]any

// Compiler translates script source into a reusable Program.
type Compiler interface {
	Compile(ctx context.Context, source string) (Program, error)
}

// Program is a compiled script. It is immutable once created and may be run
// from multiple goroutines at the same time; each Run gets its own scope.
type Program interface {
	// Run evaluates the program against a fresh scope populated from bindings
	// and returns the completion value coerced to a string.
	Run(ctx context.Context, bindings Bindings) (string, error)
}
