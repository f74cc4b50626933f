// Package progress provides progress indication components.
//
// Both components render to a caller-supplied writer (stderr in the CLI)
// so stdout stays clean for piped output, and both are safe to update
// from any goroutine.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"
)

// stopTimeout bounds how long Stop waits for the program to exit.
const stopTimeout = 500 * time.Millisecond

// runner owns one background tea.Program and the channel feeding it.
type runner struct {
	out     io.Writer
	mu      sync.Mutex
	program *tea.Program
	updates chan tea.Msg
	done    chan struct{}
	running bool
}

func newRunner(out io.Writer) runner {
	if out == nil {
		out = os.Stderr
	}
	return runner{out: out}
}

// start runs the model built by newModel. It is a no-op when running.
func (r *runner) start(newModel func(updates <-chan tea.Msg) tea.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.updates = make(chan tea.Msg, 10)
	r.done = make(chan struct{})
	r.program = tea.NewProgram(newModel(r.updates),
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithOutput(r.out),
		tea.WithColorProfile(colorprofile.Detect(r.out, os.Environ())),
	)
	r.running = true

	p, done := r.program, r.done
	go func() {
		_, _ = p.Run()
		close(done)
	}()
}

// send forwards msg to the running model, dropping it when the buffer
// is full. Reports false when not running.
func (r *runner) send(msg tea.Msg) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return false
	}
	select {
	case r.updates <- msg:
	default:
	}
	return true
}

// stop quits the program and clears the line.
func (r *runner) stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	// closed under the lock so send never writes to a closed channel
	close(r.updates)
	p, done := r.program, r.done
	r.mu.Unlock()

	p.Quit()
	select {
	case <-done:
	case <-time.After(stopTimeout):
	}
	fmt.Fprint(r.out, "\r\033[K")
}

// waitFor returns a command delivering the next update, or quitting once
// updates is closed.
func waitFor(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}
