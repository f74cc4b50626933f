package prompt

import (
	"context"
	"io"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"

	"github.com/raphi011/wtsweep/internal/ui/styles"
)

// ConfirmResult holds the result of a confirmation prompt.
type ConfirmResult struct {
	Confirmed bool
	Cancelled bool
}

type confirmModel struct {
	prompt    string
	details   []string
	confirmed bool
	done      bool
	cancelled bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// the first answer sticks; keys typed ahead are dropped
	if m.done {
		return m, nil
	}
	if msg, ok := msg.(tea.KeyPressMsg); ok {
		switch msg.String() {
		case "y", "Y":
			m.confirmed = true
			m.done = true
			return m, tea.Quit
		case "n", "N", "enter":
			// enter defaults to no
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}
	var b strings.Builder
	for _, d := range m.details {
		b.WriteString(styles.MutedStyle.Render("  " + d))
		b.WriteString("\n")
	}
	b.WriteString(styles.Bold.Render(m.prompt))
	b.WriteString(" [y/N] ")
	return tea.NewView(b.String())
}

// Options configures where a prompt renders.
type Options struct {
	Input  io.Reader // default os.Stdin
	Output io.Writer // default os.Stderr
}

// Confirm shows a yes/no prompt with optional detail lines above it and
// returns the user's choice. The default answer is "no" if the user
// presses enter without input. Canceling ctx ends the prompt with
// ctx's error.
func Confirm(ctx context.Context, prompt string, details []string, opts Options) (ConfirmResult, error) {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	p := tea.NewProgram(confirmModel{prompt: prompt, details: details},
		tea.WithContext(ctx),
		tea.WithInput(opts.Input),
		tea.WithOutput(opts.Output),
		tea.WithColorProfile(colorprofile.Detect(opts.Output, os.Environ())),
	)
	finalModel, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ConfirmResult{Cancelled: true}, ctx.Err()
		}
		return ConfirmResult{}, err
	}
	m := finalModel.(confirmModel)
	return ConfirmResult{
		Confirmed: m.confirmed,
		Cancelled: m.cancelled,
	}, nil
}
