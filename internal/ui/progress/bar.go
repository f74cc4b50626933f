package progress

import (
	"fmt"
	"io"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/wtsweep/internal/ui/styles"
)

const barWidth = 40

type barUpdate struct {
	current int
	message string
}

// Bar shows determinate progress, e.g. worktrees evaluated out of total.
type Bar struct {
	runner
	total   int
	current int
	message string
}

type barModel struct {
	bar     progress.Model
	total   int
	current int
	message string
	updates <-chan tea.Msg
}

func (m barModel) Init() tea.Cmd {
	return waitFor(m.updates)
}

func (m barModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case barUpdate:
		m.current = msg.current
		m.message = msg.message
		return m, waitFor(m.updates)
	default:
		var cmd tea.Cmd
		m.bar, cmd = m.bar.Update(msg)
		return m, cmd
	}
}

func (m barModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	p := float64(m.current) / float64(m.total)
	return min(max(p, 0), 1)
}

// View renders "[bar]  45% 3/7 message".
func (m barModel) View() tea.View {
	if m.message == "" && m.total == 0 {
		return tea.NewView("")
	}
	p := m.percent()
	return tea.NewView(fmt.Sprintf("%s %3d%% %d/%d %s", m.bar.ViewAs(p), int(p*100), m.current, m.total, m.message))
}

func newBarModel(total, current int, message string, updates <-chan tea.Msg) barModel {
	return barModel{
		bar: progress.New(
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
			progress.WithColors(styles.Primary, styles.Accent),
		),
		total:   total,
		current: current,
		message: message,
		updates: updates,
	}
}

// NewBar creates a bar for total steps writing to out (stderr when nil).
func NewBar(out io.Writer, total int, message string) *Bar {
	return &Bar{runner: newRunner(out), total: total, message: message}
}

// Start begins the display.
func (b *Bar) Start() {
	b.start(func(updates <-chan tea.Msg) tea.Model {
		return newBarModel(b.total, b.current, b.message, updates)
	})
}

// Set updates the completed count and message, before or after Start.
func (b *Bar) Set(current int, message string) {
	if !b.send(barUpdate{current: current, message: message}) {
		b.mu.Lock()
		b.current, b.message = current, message
		b.mu.Unlock()
	}
}

// Total returns the step count.
func (b *Bar) Total() int { return b.total }

// Stop stops the bar and clears the line.
func (b *Bar) Stop() { b.stop() }
