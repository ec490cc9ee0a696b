package hosts

import (
	"github.com/wippyai/script-runtime/engine"
)

// Options selects what the default hosts expose.
type Options struct {
	Env  map[string]string
	Args []string
	Cwd  string
}

// Defaults returns every host in this package.
func Defaults(opts Options) []engine.Host {
	return []engine.Host{
		NewEnvironmentHost(opts.Env, opts.Args, opts.Cwd),
		NewClockHost(),
		NewRandomHost(),
		NewTerminalHost(),
	}
}

// RegisterDefaults registers Defaults(opts) on reg.
func RegisterDefaults(reg *engine.HostRegistry, opts Options) error {
	for _, h := range Defaults(opts) {
		if err := reg.RegisterHost(h); err != nil {
			return err
		}
	}
	return nil
}
