package progress

import (
	"bytes"
	"strings"
	"testing"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
)

func TestBar_New(t *testing.T) {
	t.Parallel()

	b := NewBar(&bytes.Buffer{}, 100, "Test message")
	if b.Total() != 100 {
		t.Errorf("Total() = %d, want 100", b.Total())
	}
}

func TestBar_SetBeforeStart(t *testing.T) {
	t.Parallel()

	b := NewBar(&bytes.Buffer{}, 10, "Test")
	b.Set(5, "Updated")
	if b.current != 5 || b.message != "Updated" {
		t.Errorf("current, message = %d, %q, want 5, Updated", b.current, b.message)
	}
}

func TestBar_StopBeforeStart(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	NewBar(&out, 10, "Test").Stop()
	if out.Len() != 0 {
		t.Errorf("Stop() before Start wrote %q", out.String())
	}
}

func TestBarModel_Update(t *testing.T) {
	t.Parallel()

	updates := make(chan tea.Msg)
	m := newBarModel(4, 0, "starting", updates)

	updated, cmd := m.Update(barUpdate{current: 3, message: "wt/feature"})
	um := updated.(barModel)
	if um.current != 3 || um.message != "wt/feature" {
		t.Errorf("after update: current = %d, message = %q", um.current, um.message)
	}
	if cmd == nil {
		t.Error("Update should wait for the next update")
	}

	view := um.View().Content
	if !strings.Contains(view, " 75% 3/4 wt/feature") {
		t.Errorf("View().Content = %q, want 75%% 3/4 wt/feature", view)
	}
}

func TestBarModel_Percent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total, current int
		want           float64
	}{
		{0, 0, 0},
		{4, 2, 0.5},
		{4, 9, 1},
		{4, -1, 0},
	}
	for _, tt := range tests {
		m := barModel{total: tt.total, current: tt.current}
		if got := m.percent(); got != tt.want {
			t.Errorf("percent(%d/%d) = %v, want %v", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestSpinner_UpdateBeforeStart(t *testing.T) {
	t.Parallel()

	s := NewSpinner(&bytes.Buffer{}, "Loading")
	s.UpdateMessage("Refreshing")
	if s.message != "Refreshing" {
		t.Errorf("message = %q, want Refreshing", s.message)
	}
	s.Stop()
}

func TestSpinnerModel(t *testing.T) {
	t.Parallel()

	updates := make(chan tea.Msg)
	m := spinnerModel{spinner: spinner.New(), message: "Checking wt/a", updates: updates}
	if !strings.Contains(m.View().Content, "Checking wt/a") {
		t.Errorf("View().Content = %q", m.View().Content)
	}

	updated, cmd := m.Update(messageUpdate("Checking wt/b"))
	if got := updated.(spinnerModel).message; got != "Checking wt/b" {
		t.Errorf("message = %q, want Checking wt/b", got)
	}
	if cmd == nil {
		t.Error("Update should wait for the next message")
	}

	if got := (spinnerModel{}).View().Content; got != "" {
		t.Errorf("empty message View().Content = %q, want empty", got)
	}
}

func TestWaitFor_Closed(t *testing.T) {
	t.Parallel()

	updates := make(chan tea.Msg)
	close(updates)
	if _, ok := waitFor(updates)().(tea.QuitMsg); !ok {
		t.Error("waitFor on a closed channel should quit")
	}
}
