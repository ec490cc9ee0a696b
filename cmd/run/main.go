package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	scriptruntime "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/config"
	"github.com/wippyai/script-runtime/engine"
	"github.com/wippyai/script-runtime/hosts"
	"github.com/wippyai/script-runtime/runtime"
)

// argFlags collects repeated -arg name=value flags.
type argFlags []string

func (a *argFlags) String() string {
	return strings.Join(*a, ",")
}

func (a *argFlags) Set(v string) error {
	*a = append(*a, v)
	return nil
}

func main() {
	var args argFlags
	var (
		scriptFile  = flag.String("script", "", "Path to a script file")
		expr        = flag.String("e", "", "Script source to evaluate")
		configFile  = flag.String("config", "", "Path to a YAML config file")
		precompile  = flag.Bool("precompile", false, "Compile the script without running it")
		stats       = flag.Bool("stats", false, "Print cache statistics after running")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Var(&args, "arg", "Binding name=value; value is JSON, or a plain string if not valid JSON (repeatable)")
	flag.Parse()

	if *scriptFile == "" && *expr == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: run -script <file.js> [-arg name=value ...] [-config runtime.yaml]")
		fmt.Fprintln(os.Stderr, "       run -e '<source>' [-arg name=value ...]")
		fmt.Fprintln(os.Stderr, "       run -script <file.js> -precompile")
		fmt.Fprintln(os.Stderr, "       run -i  (interactive mode)")
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fail(err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fail(err)
	}
	defer func() { _ = logger.Sync() }()
	engine.SetLogger(logger.Named("engine"))
	runtime.SetLogger(logger.Named("runtime"))

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		fail(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.Close(ctx)
	}()

	if *interactive {
		if !hosts.IsStdinTerminal() {
			fail(fmt.Errorf("interactive mode needs a terminal"))
		}
		if err := runInteractive(rt, cfg.Timeout); err != nil {
			fail(err)
		}
		return
	}

	source := *expr
	if *scriptFile != "" {
		data, err := os.ReadFile(*scriptFile)
		if err != nil {
			fail(fmt.Errorf("read script: %w", err))
		}
		source = string(data)
	}

	bindings, err := parseBindings(args)
	if err != nil {
		fail(err)
	}

	if err := run(rt, cfg, source, bindings, *precompile); err != nil {
		if *stats {
			printStats(rt.Stats())
		}
		fail(err)
	}
	if *stats {
		printStats(rt.Stats())
	}
}

func newRuntime(cfg config.Config, logger *zap.Logger) (*runtime.Runtime, error) {
	reg := engine.NewHostRegistry()
	cwd, _ := os.Getwd()
	err := hosts.RegisterDefaults(reg, hosts.Options{
		Env:  environ(),
		Args: flag.Args(),
		Cwd:  cwd,
	})
	if err != nil {
		return nil, err
	}

	rt := runtime.NewWithConfig(cfg.Runtime(reg, logger.Named("runtime")))

	sources, err := cfg.PrecompileSources()
	if err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		// Failures are remembered by the runtime; a bad warm-up script only
		// affects executions of that same script.
		if err := rt.PrecompileAll(context.Background(), sources); err != nil {
			logger.Warn("precompile failed", zap.Error(err))
		}
	}
	return rt, nil
}

func run(rt *runtime.Runtime, cfg config.Config, source string, bindings scriptruntime.Bindings, precompileOnly bool) error {
	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if precompileOnly {
		if _, err := rt.Precompile(ctx, source).Wait(ctx); err != nil {
			return err
		}
		fmt.Printf("compiled %s\n", rt.Fingerprint(source))
		return nil
	}

	out, err := rt.Execute(ctx, source, bindings).Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// parseBindings turns name=value pairs into bindings. Values are decoded as
// JSON so numbers, booleans, arrays and objects keep their type.
func parseBindings(args []string) (scriptruntime.Bindings, error) {
	bindings := make(scriptruntime.Bindings, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid -arg %q: want name=value", arg)
		}
		bindings[name] = decodeValue(raw)
	}
	return bindings, nil
}

func decodeValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func printStats(s runtime.Stats) {
	fmt.Fprintln(os.Stderr, formatStats(s))
}

func formatStats(s runtime.Stats) string {
	return fmt.Sprintf("programs=%d hits=%d misses=%d compiles=%d failures=%d workers=%d",
		s.Programs.Entries, s.Programs.Hits, s.Programs.Misses, s.Programs.Compiles, s.Failures, s.Workers)
}

func fail(err error) {
	if hosts.IsStdoutTerminal() {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
