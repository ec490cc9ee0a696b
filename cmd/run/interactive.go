package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	scriptruntime "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxHistory = 8

const (
	fieldSource = iota
	fieldBindings
)

type interactiveModel struct {
	rt       *runtime.Runtime
	timeout  time.Duration
	history  []historyEntry
	inputs   []textinput.Model
	focusIdx int
	running  bool
	status   string
}

type historyEntry struct {
	err     error
	source  string
	result  string
	elapsed time.Duration
}

type executedMsg struct {
	entry historyEntry
}

func newInteractiveModel(rt *runtime.Runtime, timeout time.Duration) *interactiveModel {
	source := textinput.New()
	source.Prompt = "script: "
	source.Placeholder = `"1" + "1"`
	source.Width = 60
	source.Focus()

	bindings := textinput.New()
	bindings.Prompt = "bindings: "
	bindings.Placeholder = `{"x": 2, "y": 3}`
	bindings.Width = 60

	return &interactiveModel{
		rt:      rt,
		timeout: timeout,
		inputs:  []textinput.Model{source, bindings},
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			return m, tea.Quit

		case "tab", "shift+tab":
			m.inputs[m.focusIdx].Blur()
			m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
			m.inputs[m.focusIdx].Focus()
			return m, nil

		case "enter":
			if m.running || strings.TrimSpace(m.inputs[fieldSource].Value()) == "" {
				return m, nil
			}
			m.running = true
			m.status = ""
			return m, m.execute(m.inputs[fieldSource].Value(), m.inputs[fieldBindings].Value())

		case "ctrl+r":
			source := m.inputs[fieldSource].Value()
			if m.rt.Invalidate(source) {
				m.status = "invalidated " + m.rt.Fingerprint(source).Short()
			} else {
				m.status = "nothing cached for this script"
			}
			return m, nil

		case "ctrl+x":
			m.rt.Reset()
			m.status = "caches reset"
			return m, nil

		case "esc":
			m.inputs[m.focusIdx].SetValue("")
			return m, nil
		}

	case executedMsg:
		m.running = false
		m.history = append([]historyEntry{msg.entry}, m.history...)
		if len(m.history) > maxHistory {
			m.history = m.history[:maxHistory]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m *interactiveModel) execute(source, rawBindings string) tea.Cmd {
	return func() tea.Msg {
		entry := historyEntry{source: source}

		bindings, err := decodeBindings(rawBindings)
		if err != nil {
			entry.err = err
			return executedMsg{entry: entry}
		}

		ctx := context.Background()
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}

		start := time.Now()
		entry.result, entry.err = m.rt.Execute(ctx, source, bindings).Wait(ctx)
		entry.elapsed = time.Since(start)
		return executedMsg{entry: entry}
	}
}

// decodeBindings parses a JSON object; empty input means no bindings.
func decodeBindings(raw string) (scriptruntime.Bindings, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var bindings scriptruntime.Bindings
	if err := json.Unmarshal([]byte(raw), &bindings); err != nil {
		return nil, fmt.Errorf("bindings must be a JSON object: %w", err)
	}
	return bindings, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Script Runner"))
	b.WriteString(" ")
	b.WriteString(statsStyle.Render(formatStats(m.rt.Stats())))
	b.WriteString("\n\n")

	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.running:
		b.WriteString(helpStyle.Render("running..."))
		b.WriteString("\n\n")
	case m.status != "":
		b.WriteString(statsStyle.Render(m.status))
		b.WriteString("\n\n")
	}

	for _, e := range m.history {
		b.WriteString(sourceStyle.Render(e.source))
		b.WriteString(helpStyle.Render(fmt.Sprintf("  (%s)", e.elapsed.Round(time.Microsecond))))
		b.WriteString("\n  ")
		if e.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", e.err)))
		} else {
			b.WriteString(resultStyle.Render(e.result))
		}
		b.WriteString("\n")
	}
	if len(m.history) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter run • tab switch field • esc clear • ctrl+r invalidate • ctrl+x reset • ctrl+c quit"))
	return b.String()
}

func runInteractive(rt *runtime.Runtime, timeout time.Duration) error {
	p := tea.NewProgram(newInteractiveModel(rt, timeout), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
