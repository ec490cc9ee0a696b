package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	scriptruntime "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/errors"
)

// Config holds configuration for engine creation
type Config struct {
	// Hosts are installed into every script scope before bindings.
	// Bindings with the same name shadow host objects.
	Hosts *HostRegistry

	// Logger receives console output from scripts. Nil uses Logger().
	Logger *zap.Logger

	// FieldTag names the struct tag used to map Go fields to JS properties.
	// Defaults to "json". Untagged fields keep their Go name uncapitalized.
	FieldTag string

	// Strict compiles scripts in strict mode.
	Strict bool

	// DisableConsole omits the console object.
	DisableConsole bool
}

// GojaEngine compiles JavaScript into GojaPrograms.
type GojaEngine struct {
	hosts          *HostRegistry
	logger         *zap.Logger
	fieldTag       string
	strict         bool
	disableConsole bool
}

// NewGojaEngine creates a new goja-based engine with default configuration
func NewGojaEngine() *GojaEngine {
	return NewGojaEngineWithConfig(nil)
}

// NewGojaEngineWithConfig creates a new engine with custom configuration
func NewGojaEngineWithConfig(cfg *Config) *GojaEngine {
	e := &GojaEngine{fieldTag: "json"}
	if cfg != nil {
		e.hosts = cfg.Hosts
		e.logger = cfg.Logger
		e.strict = cfg.Strict
		e.disableConsole = cfg.DisableConsole
		if cfg.FieldTag != "" {
			e.fieldTag = cfg.FieldTag
		}
	}
	return e
}

// Compile parses and compiles source. Syntax errors are reported as
// compilation errors.
func (e *GojaEngine) Compile(ctx context.Context, source string) (scriptruntime.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prog, err := goja.Compile("", source, e.strict)
	if err != nil {
		return nil, errors.Compilation(err)
	}
	return &GojaProgram{engine: e, program: prog}, nil
}

func (e *GojaEngine) log() *zap.Logger {
	if e.logger != nil {
		return e.logger
	}
	return Logger()
}

// scope is a goja runtime entered for one execution.
type scope struct {
	vm   *goja.Runtime
	stop func() bool
}

// enter creates a fresh runtime with hosts and console installed and arms
// ctx cancellation to interrupt it. The returned scope must be exited on
// every path.
func (e *GojaEngine) enter(ctx context.Context) (*scope, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper(e.fieldTag, true))

	if !e.disableConsole {
		if err := installConsole(vm, e.log()); err != nil {
			return nil, errors.Registration(errors.PhaseHost, "console", "*", err)
		}
	}
	if e.hosts != nil {
		if err := e.hosts.Install(vm); err != nil {
			return nil, err
		}
	}

	s := &scope{vm: vm}
	s.stop = context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	return s, nil
}

func (s *scope) exit() {
	s.stop()
	s.vm.ClearInterrupt()
}

// GojaProgram is a compiled script. A goja.Program holds no evaluation state,
// so one GojaProgram is run concurrently in independent runtimes.
type GojaProgram struct {
	engine  *GojaEngine
	program *goja.Program
}

// Run evaluates the program in a fresh scope populated from bindings.
func (p *GojaProgram) Run(ctx context.Context, bindings scriptruntime.Bindings) (result string, err error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Interrupted(err)
	}

	s, err := p.engine.enter(ctx)
	if err != nil {
		return "", err
	}
	defer s.exit()

	// Sorted so the first unconvertible binding reported is deterministic.
	for _, name := range slices.Sorted(maps.Keys(bindings)) {
		v, err := ToValue(s.vm, name, bindings[name])
		if err != nil {
			return "", err
		}
		if err := s.vm.Set(name, v); err != nil {
			return "", errors.New(errors.PhaseBind, errors.KindConversion).
				Path(name).
				Cause(err).
				Detail("define binding").
				Build()
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = ""
			err = errors.Exception(fmt.Errorf("panic: %v", r))
		}
	}()

	val, runErr := s.vm.RunProgram(p.program)
	if runErr != nil {
		return "", classifyRunError(runErr)
	}
	return resultString(val)
}

func classifyRunError(err error) error {
	var interrupted *goja.InterruptedError
	if stderrors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return errors.Interrupted(cause)
		}
		return errors.Interrupted(err)
	}
	return errors.Exception(err)
}

// resultString reduces a completion value to a string. Primitives go through
// JS ToString; undefined, null, symbols and objects are rejected.
func resultString(val goja.Value) (string, error) {
	switch {
	case val == nil || goja.IsUndefined(val):
		return "", errors.ResultMismatch("undefined")
	case goja.IsNull(val):
		return "", errors.ResultMismatch("null")
	}

	switch v := val.(type) {
	case *goja.Object:
		return "", errors.ResultMismatch(v.ClassName())
	case *goja.Symbol:
		return "", errors.ResultMismatch("symbol")
	}
	return val.String(), nil
}
