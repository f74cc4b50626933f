package hooks

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/raphi011/wtsweep/internal/config"
	"github.com/raphi011/wtsweep/internal/log"
)

// Trigger names the operation a hook runs after.
type Trigger string

const (
	TriggerCreate  Trigger = "create"
	TriggerCleanup Trigger = "cleanup"
)

// Context holds the values substituted into a hook command.
type Context struct {
	Path    string
	Branch  string
	Repo    string // main worktree path
	Trigger Trigger
	Action  string
	Env     map[string]string // from --arg key=value
}

// Match is a hook selected to run.
type Match struct {
	Name string
	Hook config.Hook
}

// Select returns the hooks to run for trigger, ordered by name. A non-empty
// name selects that hook regardless of its "on" list.
func Select(hooks map[string]config.Hook, name string, skip bool, trigger Trigger) ([]Match, error) {
	if skip {
		return nil, nil
	}
	if name != "" {
		h, ok := hooks[name]
		if !ok {
			return nil, fmt.Errorf("unknown hook %q", name)
		}
		return []Match{{Name: name, Hook: h}}, nil
	}

	var out []Match
	for n, h := range hooks {
		if runsOn(h, trigger) {
			out = append(out, Match{Name: n, Hook: h})
		}
	}
	slices.SortFunc(out, func(a, b Match) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func runsOn(h config.Hook, trigger Trigger) bool {
	for _, on := range h.On {
		if on == "all" || on == string(trigger) {
			return true
		}
	}
	return false
}

// Runner executes hooks. Hook output and progress lines go to Out.
type Runner struct {
	Out    io.Writer
	DryRun bool // print the substituted command instead of running it
}

// Run runs matches in dir and stops at the first failure.
func (r Runner) Run(ctx context.Context, matches []Match, hc Context, dir string) error {
	for _, m := range matches {
		if err := r.run(ctx, m, hc, dir); err != nil {
			return fmt.Errorf("hook %q failed: %w", m.Name, err)
		}
	}
	return nil
}

// RunEach runs every match in dir, logging failures instead of returning them.
func (r Runner) RunEach(ctx context.Context, matches []Match, hc Context, dir string) {
	for _, m := range matches {
		if err := r.run(ctx, m, hc, dir); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.FromContext(ctx).Warn("hook failed", "hook", m.Name, "branch", hc.Branch, "error", err)
		}
	}
}

func (r Runner) run(ctx context.Context, m Match, hc Context, dir string) error {
	command := Substitute(m.Hook.Command, hc)
	if r.DryRun {
		fmt.Fprintf(r.Out, "[dry-run] %s: %s\n", m.Name, command)
		return nil
	}
	fmt.Fprintf(r.Out, "Running hook '%s'...\n", m.Name)

	done := log.FromContext(ctx).Command(dir, "sh", "-c", command)
	start := time.Now()

	c := exec.CommandContext(ctx, "sh", "-c", command)
	c.Dir = dir
	c.Stdout = r.Out
	c.Stderr = r.Out
	err := c.Run()
	done(time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	if m.Hook.Description != "" {
		fmt.Fprintf(r.Out, "  ✓ %s\n", m.Hook.Description)
	}
	return nil
}

// ParseArgs parses "key=value" pairs from --arg.
func ParseArgs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid arg %q: expected KEY=VALUE", a)
		}
		if key == "" {
			return nil, fmt.Errorf("invalid arg %q: key cannot be empty", a)
		}
		out[key] = value
	}
	return out, nil
}

// shellQuote wraps s in single quotes; an embedded ' becomes '\''.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// placeholder matches {key}, {key:raw} and {key:-default}.
var placeholder = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_-]*)(?:(:raw)|:-([^}]*))?\}`)

// Substitute expands placeholders in command.
func Substitute(command string, hc Context) string {
	static := map[string]string{
		"path":    hc.Path,
		"branch":  hc.Branch,
		"repo":    hc.Repo,
		"folder":  "",
		"trigger": string(hc.Trigger),
		"action":  hc.Action,
	}
	if hc.Repo != "" {
		static["folder"] = filepath.Base(hc.Repo)
	}

	var b strings.Builder
	last := 0
	for _, loc := range placeholder.FindAllStringSubmatchIndex(command, -1) {
		start, end := loc[0], loc[1]
		// ${VAR} belongs to the shell
		if start > 0 && command[start-1] == '$' {
			continue
		}
		key := command[loc[2]:loc[3]]
		raw := loc[4] >= 0
		def, hasDef := "", loc[6] >= 0
		if hasDef {
			def = command[loc[6]:loc[7]]
		}

		value, ok := static[key]
		if !ok {
			value, ok = hc.Env[key]
		}
		if !ok {
			value = def
		}

		b.WriteString(command[last:start])
		if raw {
			b.WriteString(value)
		} else {
			b.WriteString(shellQuote(value))
		}
		last = end
	}
	b.WriteString(command[last:])
	return b.String()
}
