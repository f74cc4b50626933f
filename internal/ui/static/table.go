// Package static renders non-interactive terminal output: worktree,
// cleanup and recommendation tables plus key/value blocks.
package static

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/wtsweep/internal/ui/styles"
)

var (
	headerCell = styles.Bold.PaddingRight(2)
	bodyCell   = lipgloss.NewStyle().PaddingRight(2)
)

// RenderTable lays rows out under bold headers in borderless columns sized
// to their widest cell. Styled cells are measured by visible width. Lines
// carry no trailing padding. No rows renders nothing.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	last := len(headers) - 1
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := bodyCell
			if row == table.HeaderRow {
				s = headerCell
			}
			if col == last {
				s = s.UnsetPaddingRight()
			}
			return s
		})

	var b strings.Builder
	for line := range strings.SplitSeq(t.String(), "\n") {
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// Field is one line of a key/value block.
type Field struct {
	Name  string
	Value string
}

// RenderFields aligns values after "Name:" labels.
func RenderFields(fields []Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f.Name)+1)
	}

	var b strings.Builder
	for _, f := range fields {
		label := f.Name + ":"
		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", width-lipgloss.Width(label)+1))
		b.WriteString(f.Value)
		b.WriteByte('\n')
	}
	return b.String()
}
