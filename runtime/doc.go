// Package runtime provides the high-level API for executing scripts.
//
// # Quick Start
//
//	rt := runtime.New()
//	defer rt.Close(ctx)
//
//	out, err := rt.Execute(ctx, "x + y", scriptruntime.Bindings{"x": 2, "y": 3}).Wait(ctx)
//	fmt.Println(out) // "5"
//
// Execute returns a future immediately; the script runs on one of the
// runtime's workers. ExecuteSync runs on the calling goroutine instead.
//
// # Caching
//
// Source is fingerprinted (SHA-256 by default) and compiled at most once per
// fingerprint. Later executions reuse the compiled program, each in a fresh
// scope. Precompile and PrecompileAll fill the cache without running anything:
//
//	if err := rt.PrecompileAll(ctx, scripts); err != nil {
//	    log.Fatal(err)
//	}
//
// # Failure Memo
//
// The first compile or run failure of a fingerprint is remembered. Every
// later Execute or Precompile of the same source fails immediately with an
// error matching errors.ErrPreviouslyFailed whose message embeds the
// original failure. Nothing is compiled or run for it again until
// Invalidate or Reset:
//
//	_, err := rt.ExecuteSync(ctx, "1 +", nil)   // ErrCompilation
//	_, err = rt.ExecuteSync(ctx, "1 +", nil)    // ErrPreviouslyFailed
//	rt.Invalidate("1 +")                        // forget it
//
// Context cancellation is not a script failure and is never remembered.
//
// # Host Functions
//
// Go functions and objects can be exposed to scripts:
//
//	rt.RegisterFunc(engine.GlobalNamespace, "greet",
//	    func(name string) string { return "Hello, " + name })
//
//	// Or implement engine.Host for a full namespace
//	rt.RegisterHost(myHost) // myHost.GetValue() -> ns.getValue()
//
// # Thread Safety
//
// Runtime is safe for concurrent use. Executions of the same source share
// one compiled program but never share evaluation state.
package runtime
