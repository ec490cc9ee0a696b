package hosts

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

var (
	stdinIsTerminal  atomic.Int32
	stdoutIsTerminal atomic.Int32
	stderrIsTerminal atomic.Int32
)

func init() {
	// -1 = unchecked, 0 = no, 1 = yes
	stdinIsTerminal.Store(-1)
	stdoutIsTerminal.Store(-1)
	stderrIsTerminal.Store(-1)
}

func isTerminal(fd int, cached *atomic.Int32) bool {
	if v := cached.Load(); v >= 0 {
		return v == 1
	}
	result := term.IsTerminal(fd)
	if result {
		cached.Store(1)
	} else {
		cached.Store(0)
	}
	return result
}

// IsStdoutTerminal reports whether the process stdout is a terminal.
func IsStdoutTerminal() bool {
	return isTerminal(int(os.Stdout.Fd()), &stdoutIsTerminal)
}

// IsStdinTerminal reports whether the process stdin is a terminal.
func IsStdinTerminal() bool {
	return isTerminal(int(os.Stdin.Fd()), &stdinIsTerminal)
}

// TerminalHost lets scripts check whether standard streams are terminals.
type TerminalHost struct{}

func NewTerminalHost() *TerminalHost {
	return &TerminalHost{}
}

func (h *TerminalHost) Namespace() string {
	return "terminal"
}

func (h *TerminalHost) Stdin() bool {
	return IsStdinTerminal()
}

func (h *TerminalHost) Stdout() bool {
	return IsStdoutTerminal()
}

func (h *TerminalHost) Stderr() bool {
	return isTerminal(int(os.Stderr.Fd()), &stderrIsTerminal)
}

// Size returns the stdout terminal size as [width, height].
func (h *TerminalHost) Size() ([]int, error) {
	w, ht, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return nil, err
	}
	return []int{w, ht}, nil
}
