package progress

import (
	"fmt"
	"io"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/wtsweep/internal/ui/styles"
)

// messageUpdate replaces the spinner message.
type messageUpdate string

// Spinner shows an indeterminate activity indicator with a message.
type Spinner struct {
	runner
	message string
}

type spinnerModel struct {
	spinner spinner.Model
	message string
	updates <-chan tea.Msg
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitFor(m.updates))
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messageUpdate:
		m.message = string(msg)
		return m, waitFor(m.updates)
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinnerModel) View() tea.View {
	if m.message == "" {
		return tea.NewView("")
	}
	return tea.NewView(fmt.Sprintf("%s %s", m.spinner.View(), m.message))
}

// NewSpinner creates a spinner writing to out (stderr when nil).
func NewSpinner(out io.Writer, message string) *Spinner {
	return &Spinner{runner: newRunner(out), message: message}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.start(func(updates <-chan tea.Msg) tea.Model {
		sp := spinner.New()
		sp.Spinner = spinner.Dot
		sp.Style = styles.AccentStyle
		return spinnerModel{spinner: sp, message: s.message, updates: updates}
	})
}

// UpdateMessage changes the message, before or after Start.
func (s *Spinner) UpdateMessage(message string) {
	if !s.send(messageUpdate(message)) {
		s.mu.Lock()
		s.message = message
		s.mu.Unlock()
	}
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() { s.stop() }
