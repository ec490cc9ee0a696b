package runtime

import (
	"context"
	stderrors "errors"
	"maps"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	scriptruntime "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/cache"
	"github.com/wippyai/script-runtime/engine"
	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/fingerprint"
	"github.com/wippyai/script-runtime/scheduler"
)

// Config holds configuration for runtime creation
type Config struct {
	// Compiler turns source into programs. Nil uses a goja engine wired to
	// Hosts and Logger.
	Compiler scriptruntime.Compiler

	// Hosts are exposed to scripts by the default compiler. Nil creates an
	// empty registry. Ignored when Compiler is set.
	Hosts *engine.HostRegistry

	// Fingerprint derives cache keys from source. Nil uses SHA-256.
	Fingerprint fingerprint.Func

	// Logger overrides the package logger for this runtime.
	Logger *zap.Logger

	// Workers bounds concurrent executions. Zero selects GOMAXPROCS.
	Workers int

	// DisableSingleFlight lets concurrent misses on one fingerprint compile
	// in parallel; the first result stored wins.
	DisableSingleFlight bool
}

// Runtime executes scripts on a worker pool. Compiled programs are cached
// by fingerprint and every failed fingerprint is remembered, so a script
// that failed once is rejected without being compiled or run again.
type Runtime struct {
	compiler    scriptruntime.Compiler
	hosts       *engine.HostRegistry
	programs    *cache.Programs
	failures    *cache.Failures
	sched       *scheduler.Scheduler
	fingerprint fingerprint.Func
	logger      *zap.Logger
}

// New creates a runtime with default configuration.
func New() *Runtime {
	return NewWithConfig(nil)
}

// NewWithConfig creates a runtime with custom configuration.
func NewWithConfig(cfg *Config) *Runtime {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &Runtime{
		hosts:       cfg.Hosts,
		fingerprint: cfg.Fingerprint,
		logger:      cfg.Logger,
	}
	if r.hosts == nil {
		r.hosts = engine.NewHostRegistry()
	}
	if r.fingerprint == nil {
		r.fingerprint = fingerprint.SHA256
	}
	if r.logger == nil {
		r.logger = Logger()
	}

	r.compiler = cfg.Compiler
	if r.compiler == nil {
		r.compiler = engine.NewGojaEngineWithConfig(&engine.Config{
			Hosts:  r.hosts,
			Logger: r.logger.Named("console"),
		})
	}

	r.programs = cache.NewPrograms(r.compiler, cache.WithSingleFlight(!cfg.DisableSingleFlight))
	r.failures = cache.NewFailures()
	r.sched = scheduler.New(cfg.Workers)
	return r
}

// Close stops accepting work and waits for in-flight executions or ctx.
func (r *Runtime) Close(ctx context.Context) error {
	return r.sched.Close(ctx)
}

// RegisterHost exposes all exported methods of h to scripts under
// h.Namespace(). Method names are converted to lowerCamel (GetValue -> getValue).
// Only the default compiler sees registered hosts.
func (r *Runtime) RegisterHost(h engine.Host) error {
	return r.hosts.RegisterHost(h)
}

func (r *Runtime) RegisterFunc(namespace, name string, fn any) error {
	return r.hosts.RegisterFunc(namespace, name, fn)
}

func (r *Runtime) Hosts() *engine.HostRegistry {
	return r.hosts
}

// Fingerprint returns the cache key for source.
func (r *Runtime) Fingerprint(source string) fingerprint.Fingerprint {
	return r.fingerprint(source)
}

// Execute compiles (or reuses) source and runs it with bindings on a worker.
// It returns immediately; the future yields the script's result as a string.
//
// Failures are reported as errors matching ErrCompilation,
// ErrBindingConversion, ErrRuntime or ErrPreviouslyFailed. Cancellation of
// ctx surfaces as ctx's error and is not remembered as a failure.
//
// bindings is copied before Execute returns.
func (r *Runtime) Execute(ctx context.Context, source string, bindings scriptruntime.Bindings) *scheduler.Future[string] {
	fp := r.fingerprint(source)
	bindings = maps.Clone(bindings)
	return scheduler.Submit(r.sched, ctx, func(ctx context.Context) (string, error) {
		return r.execute(ctx, scheduler.TaskID(ctx), fp, source, bindings)
	})
}

// ExecuteSync is Execute on the calling goroutine. It does not take a worker.
func (r *Runtime) ExecuteSync(ctx context.Context, source string, bindings scriptruntime.Bindings) (string, error) {
	return r.execute(ctx, uuid.NewString(), r.fingerprint(source), source, bindings)
}

// Precompile compiles source into the cache without running it. It follows
// the same failure policy as Execute.
func (r *Runtime) Precompile(ctx context.Context, source string) *scheduler.Future[struct{}] {
	fp := r.fingerprint(source)
	return scheduler.Submit(r.sched, ctx, func(ctx context.Context) (struct{}, error) {
		_, err := r.compile(ctx, scheduler.TaskID(ctx), fp, source)
		return struct{}{}, err
	})
}

// PrecompileAll precompiles every source and waits for all of them. It
// returns the first failure; the remaining sources are still compiled.
func (r *Runtime) PrecompileAll(ctx context.Context, sources []string) error {
	var g errgroup.Group
	for _, source := range sources {
		f := r.Precompile(ctx, source)
		g.Go(func() error {
			_, err := f.Wait(ctx)
			return err
		})
	}
	return g.Wait()
}

// Failure returns the remembered failure for source, if any.
func (r *Runtime) Failure(source string) (cache.Failure, bool) {
	return r.failures.Lookup(r.fingerprint(source))
}

// Invalidate forgets both the compiled program and the remembered failure
// for source. It reports whether anything was removed.
func (r *Runtime) Invalidate(source string) bool {
	fp := r.fingerprint(source)
	hadProgram := r.programs.Delete(fp)
	hadFailure := r.failures.Delete(fp)
	if hadProgram || hadFailure {
		r.logger.Debug("invalidated script",
			zap.String("fingerprint", fp.Short()),
			zap.Bool("program", hadProgram),
			zap.Bool("failure", hadFailure))
	}
	return hadProgram || hadFailure
}

// Reset forgets every compiled program and remembered failure. Counters in
// Stats keep running.
func (r *Runtime) Reset() {
	r.programs.Reset()
	r.failures.Reset()
	r.logger.Debug("reset script caches")
}

// Stats is a point-in-time snapshot of runtime caches.
type Stats struct {
	Programs cache.Stats
	Failures int
	Workers  int
}

func (r *Runtime) Stats() Stats {
	return Stats{
		Programs: r.programs.Stats(),
		Failures: r.failures.Len(),
		Workers:  r.sched.Workers(),
	}
}

func (r *Runtime) execute(ctx context.Context, id string, fp fingerprint.Fingerprint, source string, bindings scriptruntime.Bindings) (string, error) {
	prog, err := r.compile(ctx, id, fp, source)
	if err != nil {
		return "", err
	}

	out, err := prog.Run(ctx, bindings)
	if err != nil {
		return "", r.fail(id, fp, err)
	}
	return out, nil
}

// compile rejects remembered failures, then returns the cached program or
// compiles it.
func (r *Runtime) compile(ctx context.Context, id string, fp fingerprint.Fingerprint, source string) (scriptruntime.Program, error) {
	if failure, ok := r.failures.Lookup(fp); ok {
		r.logger.Debug("rejected previously failed script",
			zap.String("fingerprint", fp.Short()),
			zap.String("execution_id", id))
		return nil, errors.PreviouslyFailed(string(fp), failure.Message)
	}

	if _, ok := r.programs.Get(fp); !ok {
		r.logger.Debug("compiling script",
			zap.String("fingerprint", fp.Short()),
			zap.String("execution_id", id),
			zap.Int("source_len", len(source)))
	}

	prog, err := r.programs.GetOrCompile(ctx, fp, source)
	if err != nil {
		return nil, r.fail(id, fp, err)
	}
	return prog, nil
}

// fail remembers err for fp unless it is a cancellation, and returns it.
func (r *Runtime) fail(id string, fp fingerprint.Fingerprint, err error) error {
	if isCancellation(err) {
		r.logger.Debug("script canceled",
			zap.String("fingerprint", fp.Short()),
			zap.String("execution_id", id),
			zap.Error(err))
		return err
	}

	failure := r.failures.Record(fp, err)
	r.logger.Warn("script failed",
		zap.String("fingerprint", fp.Short()),
		zap.String("execution_id", id),
		zap.String("phase", string(failure.Phase)),
		zap.String("kind", string(failure.Kind)),
		zap.Error(err))
	return err
}

func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
