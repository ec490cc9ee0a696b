package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/wippyai/script-runtime/errors"
)

// counterHost exposes a stateful counter to scripts.
type counterHost struct {
	calls []string
	n     int
	mu    sync.Mutex
}

func (h *counterHost) Namespace() string {
	return "counter"
}

func (h *counterHost) Increment(by int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.n += by
	h.calls = append(h.calls, fmt.Sprintf("inc(%d)", by))
	return h.n
}

func (h *counterHost) GetHTTPStatus() int {
	return 200
}

func (h *counterHost) Fail(msg string) (string, error) {
	return "", fmt.Errorf("host refused: %s", msg)
}

type explicitHost struct{}

func (explicitHost) Namespace() string {
	return "util"
}

func (explicitHost) Register() map[string]any {
	return map[string]any{
		"to_upper": strings.ToUpper,
	}
}

func TestHostRegistry_RegisterHost(t *testing.T) {
	hosts := NewHostRegistry()
	host := &counterHost{}
	if err := hosts.RegisterHost(host); err != nil {
		t.Fatalf("register host: %v", err)
	}

	e := NewGojaEngineWithConfig(&Config{Hosts: hosts})
	prog := compile(t, e, `counter.increment(2); counter.increment(3) + "/" + counter.getHTTPStatus()`)

	out, err := prog.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "5/200" {
		t.Errorf("result = %q, want 5/200", out)
	}
	if len(host.calls) != 2 {
		t.Errorf("host saw %d calls, want 2", len(host.calls))
	}
}

func TestHostRegistry_HostErrorIsRuntimeError(t *testing.T) {
	hosts := NewHostRegistry()
	if err := hosts.RegisterHost(&counterHost{}); err != nil {
		t.Fatalf("register host: %v", err)
	}

	prog := compile(t, NewGojaEngineWithConfig(&Config{Hosts: hosts}), `counter.fail("nope")`)
	_, err := prog.Run(context.Background(), nil)
	if !stderrors.Is(err, errors.ErrRuntime) {
		t.Fatalf("err = %v, want runtime error", err)
	}
	if !strings.Contains(err.Error(), "host refused: nope") {
		t.Errorf("err = %v, should carry the host error", err)
	}
}

func TestHostRegistry_ExplicitRegistrar(t *testing.T) {
	hosts := NewHostRegistry()
	if err := hosts.RegisterHost(explicitHost{}); err != nil {
		t.Fatalf("register host: %v", err)
	}

	prog := compile(t, NewGojaEngineWithConfig(&Config{Hosts: hosts}), `util.to_upper("abc")`)
	out, err := prog.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "ABC" {
		t.Errorf("result = %q, want ABC", out)
	}
}

func TestHostRegistry_GlobalFunction(t *testing.T) {
	hosts := NewHostRegistry()
	if err := hosts.RegisterFunc(GlobalNamespace, "double", func(v int) int { return v * 2 }); err != nil {
		t.Fatalf("register func: %v", err)
	}

	prog := compile(t, NewGojaEngineWithConfig(&Config{Hosts: hosts}), `double(21)`)
	out, err := prog.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "42" {
		t.Errorf("result = %q, want 42", out)
	}
}

func TestHostRegistry_BindingShadowsHost(t *testing.T) {
	hosts := NewHostRegistry()
	if err := hosts.RegisterFunc(GlobalNamespace, "name", func() string { return "host" }); err != nil {
		t.Fatalf("register func: %v", err)
	}

	prog := compile(t, NewGojaEngineWithConfig(&Config{Hosts: hosts}), `typeof name === "string" ? name : "host fn"`)
	out, err := prog.Run(context.Background(), map[string]any{"name": "binding"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "binding" {
		t.Errorf("result = %q, want binding", out)
	}
}

func TestHostRegistry_Validation(t *testing.T) {
	hosts := NewHostRegistry()

	tests := []struct {
		name      string
		namespace string
		fn        string
		handler   any
	}{
		{"bad namespace", "not-valid", "f", func() {}},
		{"empty name", "ns", "", func() {}},
		{"bad global name", GlobalNamespace, "a b", func() {}},
		{"not a function", "ns", "f", 42},
		{"nil handler", "ns", "f", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hosts.RegisterFunc(tt.namespace, tt.fn, tt.handler)
			var rtErr *errors.Error
			if !stderrors.As(err, &rtErr) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if rtErr.Phase != errors.PhaseHost {
				t.Errorf("Phase = %v, want %v", rtErr.Phase, errors.PhaseHost)
			}
		})
	}

	if len(hosts.Namespaces()) != 0 {
		t.Errorf("failed registrations left namespaces: %v", hosts.Namespaces())
	}
}

func TestHostRegistry_Namespaces(t *testing.T) {
	hosts := NewHostRegistry()
	_ = hosts.RegisterHost(&counterHost{})
	_ = hosts.RegisterHost(explicitHost{})
	_ = hosts.RegisterFunc(GlobalNamespace, "g", func() {})

	got := hosts.Namespaces()
	want := []string{"", "counter", "util"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Namespaces() = %q, want %q", got, want)
	}
}

func TestHostRegistry_GlobalNamespaceCollision(t *testing.T) {
	assertCollision := func(t *testing.T, err error) {
		t.Helper()
		var rtErr *errors.Error
		if !stderrors.As(err, &rtErr) {
			t.Fatalf("err = %v, want *errors.Error", err)
		}
		if rtErr.Phase != errors.PhaseHost || rtErr.Kind != errors.KindRegistration {
			t.Errorf("got %v/%v, want %v/%v", rtErr.Phase, rtErr.Kind, errors.PhaseHost, errors.KindRegistration)
		}
	}

	t.Run("global after namespace", func(t *testing.T) {
		hosts := NewHostRegistry()
		if err := hosts.RegisterHost(&counterHost{}); err != nil {
			t.Fatalf("register host: %v", err)
		}
		assertCollision(t, hosts.RegisterFunc(GlobalNamespace, "counter", func() int { return 0 }))
	})

	t.Run("namespace after global", func(t *testing.T) {
		hosts := NewHostRegistry()
		if err := hosts.RegisterFunc(GlobalNamespace, "util", func() {}); err != nil {
			t.Fatalf("register func: %v", err)
		}
		assertCollision(t, hosts.RegisterFunc("util", "f", func() {}))
		assertCollision(t, hosts.RegisterHost(explicitHost{}))
	})

	t.Run("reflected host after global", func(t *testing.T) {
		hosts := NewHostRegistry()
		if err := hosts.RegisterFunc(GlobalNamespace, "counter", func() {}); err != nil {
			t.Fatalf("register func: %v", err)
		}
		assertCollision(t, hosts.RegisterHost(&counterHost{}))
		if got := hosts.Namespaces(); len(got) != 1 || got[0] != GlobalNamespace {
			t.Errorf("Namespaces() = %q, want only the global namespace", got)
		}
	})
}

func TestHostRegistry_InstallIsStable(t *testing.T) {
	hosts := NewHostRegistry()
	if err := hosts.RegisterHost(&counterHost{}); err != nil {
		t.Fatalf("register host: %v", err)
	}
	if err := hosts.RegisterFunc(GlobalNamespace, "double", func(v int) int { return v * 2 }); err != nil {
		t.Fatalf("register func: %v", err)
	}

	prog := compile(t, NewGojaEngineWithConfig(&Config{Hosts: hosts}), `typeof counter.increment + ":" + double(2)`)
	for i := 0; i < 20; i++ {
		out, err := prog.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if out != "function:4" {
			t.Fatalf("run %d: result = %q, want function:4", i, out)
		}
	}
}
