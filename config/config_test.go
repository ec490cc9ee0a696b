package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/fingerprint"
	"github.com/wippyai/script-runtime/runtime"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("workers: 3\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if !cfg.SingleFlight || cfg.Fingerprint != "sha256" || cfg.LogLevel != "info" {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestParse_AllFields(t *testing.T) {
	input := `
workers: 8
fingerprint: fnv64a
single_flight: false
strict: true
timeout: 1500ms
log_level: debug
precompile:
  - a.js
  - lib/b.js
`
	cfg, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Workers != 8 || cfg.Fingerprint != "fnv64a" || cfg.SingleFlight || !cfg.Strict {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Timeout != 1500*time.Millisecond {
		t.Errorf("Timeout = %v, want 1.5s", cfg.Timeout)
	}
	if cfg.Level() != zapcore.DebugLevel {
		t.Errorf("Level() = %v, want debug", cfg.Level())
	}
	if strings.Join(cfg.Precompile, ",") != "a.js,lib/b.js" {
		t.Errorf("Precompile = %v", cfg.Precompile)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  errors.Kind
	}{
		{"malformed yaml", "workers: [", errors.KindInvalidData},
		{"wrong type", "workers: many", errors.KindInvalidData},
		{"negative workers", "workers: -1", errors.KindInvalidInput},
		{"negative timeout", "timeout: -1s", errors.KindInvalidInput},
		{"unknown fingerprint", "fingerprint: md5", errors.KindInvalidInput},
		{"unknown level", "log_level: loud", errors.KindInvalidInput},
		{"empty precompile path", "precompile: ['a.js', '']", errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			var rtErr *errors.Error
			if !stderrors.As(err, &rtErr) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if rtErr.Phase != errors.PhaseConfig || rtErr.Kind != tt.kind {
				t.Errorf("err = %v, want config/%s", err, tt.kind)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	if err := os.WriteFile(path, []byte("workers: 2\nstrict: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SCRIPT_RUNTIME_WORKERS", "6")
	t.Setenv("SCRIPT_RUNTIME_STRICT", "true")
	t.Setenv("SCRIPT_RUNTIME_TIMEOUT", "2s")
	t.Setenv("SCRIPT_RUNTIME_FINGERPRINT", "fnv")
	t.Setenv("SCRIPT_RUNTIME_SINGLE_FLIGHT", "false")
	t.Setenv("SCRIPT_RUNTIME_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 6 || !cfg.Strict || cfg.Timeout != 2*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Fingerprint != "fnv" || cfg.SingleFlight || cfg.Level() != zapcore.WarnLevel {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("SCRIPT_RUNTIME_WORKERS", "lots")

	_, err := Load("")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidData}) {
		t.Fatalf("err = %v, want config parse error", err)
	}
	if !strings.Contains(err.Error(), "SCRIPT_RUNTIME_WORKERS") {
		t.Errorf("err %q should name the variable", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindNotFound}) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestPrecompileSources_RelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "lib", "a.js"), []byte(`"a"`), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "runtime.yaml")
	if err := os.WriteFile(path, []byte("precompile: [lib/a.js]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sources, err := cfg.PrecompileSources()
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 1 || sources[0] != `"a"` {
		t.Errorf("sources = %q", sources)
	}

	cfg.Precompile = append(cfg.Precompile, "missing.js")
	if _, err := cfg.PrecompileSources(); err == nil {
		t.Error("missing precompile script should fail")
	}
}

func TestRuntime_BuildsWorkingRuntime(t *testing.T) {
	cfg, err := Parse([]byte("workers: 2\nfingerprint: fnv64a\nstrict: true\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	rt := runtime.NewWithConfig(cfg.Runtime(nil, zap.NewNop()))
	defer rt.Close(context.Background())

	if rt.Stats().Workers != 2 {
		t.Errorf("Workers = %d, want 2", rt.Stats().Workers)
	}
	if rt.Fingerprint("x") != fingerprint.FNV64a("x") {
		t.Error("fingerprint func not applied")
	}

	// Strict mode rejects assignment to undeclared variables.
	_, err = rt.ExecuteSync(context.Background(), `undeclared = 1; "ok"`, nil)
	if !stderrors.Is(err, errors.ErrRuntime) {
		t.Errorf("err = %v, want runtime error under strict mode", err)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "error"
	log, err := cfg.NewLogger()
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be disabled at error level")
	}
}
