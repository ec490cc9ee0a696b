package engine

import (
	"maps"
	"reflect"
	"slices"
	"sort"
	"sync"

	"github.com/dop251/goja"

	"github.com/wippyai/script-runtime/errors"
)

// Host is the interface for struct-based host modules.
// All exported methods (except Namespace) are exposed to scripts as
// functions on a global object named by Namespace.
type Host interface {
	// Namespace returns the global object name scripts use (e.g., "host").
	Namespace() string
}

// ExplicitRegistrar allows hosts to provide exact JS function names
// when automatic PascalCase-to-lowerCamel conversion doesn't apply.
type ExplicitRegistrar interface {
	Register() map[string]any
}

// GlobalNamespace registers functions directly on the global object.
const GlobalNamespace = ""

// HostRegistry holds Go functions exposed to every script scope.
// Scripts may call them freely; nothing here restricts what they do.
type HostRegistry struct {
	funcs map[string]map[string]any
	mu    sync.RWMutex
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		funcs: make(map[string]map[string]any),
	}
}

func (r *HostRegistry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if !isIdentifier(ns) {
		return errors.InvalidInput(errors.PhaseHost, "namespace must be a JS identifier")
	}

	if er, ok := h.(ExplicitRegistrar); ok {
		funcs := er.Register()
		for name, handler := range funcs {
			if err := r.RegisterFunc(ns, name, handler); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(h)
	rt := rv.Type()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCollision(ns, ""); err != nil {
		return err
	}
	if r.funcs[ns] == nil {
		r.funcs[ns] = make(map[string]any)
	}

	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || method.Name == "Namespace" {
			continue
		}
		r.funcs[ns][toLowerCamel(method.Name)] = rv.Method(i).Interface()
	}

	return nil
}

// RegisterFunc registers fn as namespace.name, or as a global function when
// namespace is GlobalNamespace.
func (r *HostRegistry) RegisterFunc(namespace, name string, fn any) error {
	if namespace != GlobalNamespace && !isIdentifier(namespace) {
		return errors.InvalidInput(errors.PhaseHost, "namespace must be a JS identifier")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}
	if namespace == GlobalNamespace && !isIdentifier(name) {
		return errors.InvalidInput(errors.PhaseHost, "global function name must be a JS identifier")
	}

	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		goType := "nil"
		if fn != nil {
			goType = reflect.TypeOf(fn).String()
		}
		return errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			GoType(goType).
			Detail("handler must be a function").
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCollision(namespace, name); err != nil {
		return err
	}
	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]any)
	}
	r.funcs[namespace][name] = fn

	return nil
}

// checkCollision rejects a global function and a namespace object sharing
// one global name. Callers hold r.mu.
func (r *HostRegistry) checkCollision(namespace, name string) error {
	clash := false
	if namespace == GlobalNamespace {
		_, clash = r.funcs[name]
	} else {
		_, clash = r.funcs[GlobalNamespace][namespace]
	}
	if !clash {
		return nil
	}
	global := name
	if namespace != GlobalNamespace {
		global = namespace
	}
	return errors.New(errors.PhaseHost, errors.KindRegistration).
		Path(global).
		Detail("global function and namespace share the name %q", global).
		Build()
}

// Namespaces returns the registered namespaces in sorted order.
func (r *HostRegistry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}

// Install defines every registered function in vm.
func (r *HostRegistry) Install(vm *goja.Runtime) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Globals ("") sort first, then namespaces in name order.
	for _, namespace := range slices.Sorted(maps.Keys(r.funcs)) {
		funcs := r.funcs[namespace]
		if namespace == GlobalNamespace {
			for _, name := range slices.Sorted(maps.Keys(funcs)) {
				if err := vm.Set(name, funcs[name]); err != nil {
					return errors.Registration(errors.PhaseHost, "global", name, err)
				}
			}
			continue
		}

		obj := vm.NewObject()
		for name, fn := range funcs {
			if err := obj.Set(name, fn); err != nil {
				return errors.Registration(errors.PhaseHost, namespace, name, err)
			}
		}
		if err := vm.Set(namespace, obj); err != nil {
			return errors.Registration(errors.PhaseHost, namespace, "*", err)
		}
	}
	return nil
}
