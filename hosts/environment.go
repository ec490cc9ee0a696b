package hosts

import (
	"maps"
	"slices"
)

// EnvironmentHost exposes a fixed environment snapshot. Scripts never see
// the live process environment unless it is passed in.
type EnvironmentHost struct {
	env  map[string]string
	cwd  string
	args []string
}

func NewEnvironmentHost(env map[string]string, args []string, cwd string) *EnvironmentHost {
	if env == nil {
		env = make(map[string]string)
	}
	if cwd == "" {
		cwd = "/"
	}
	return &EnvironmentHost{
		env:  maps.Clone(env),
		args: slices.Clone(args),
		cwd:  cwd,
	}
}

func (h *EnvironmentHost) Namespace() string {
	return "env"
}

// Get returns the value of name, or "" if unset.
func (h *EnvironmentHost) Get(name string) string {
	return h.env[name]
}

func (h *EnvironmentHost) Has(name string) bool {
	_, ok := h.env[name]
	return ok
}

// Names returns the variable names in sorted order.
func (h *EnvironmentHost) Names() []string {
	return slices.Sorted(maps.Keys(h.env))
}

func (h *EnvironmentHost) Arguments() []string {
	return slices.Clone(h.args)
}

func (h *EnvironmentHost) Cwd() string {
	return h.cwd
}
