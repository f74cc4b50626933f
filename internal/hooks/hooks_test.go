package hooks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/raphi011/wtsweep/internal/config"
	"github.com/raphi011/wtsweep/internal/log"
)

func TestSubstitute(t *testing.T) {
	t.Parallel()

	hc := Context{
		Path:    "/repo/.worktrees/feature__65a1b2c3",
		Branch:  "wt/feature",
		Repo:    "/home/user/repo",
		Trigger: TriggerCleanup,
		Action:  "cleaned",
		Env:     map[string]string{"editor": "code", "msg": "it's done"},
	}

	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"no placeholders", "echo hello", "echo hello"},
		{"path", "code {path}", "code '/repo/.worktrees/feature__65a1b2c3'"},
		{"repeated", "{branch} {branch}", "'wt/feature' 'wt/feature'"},
		{"all static", "{repo} {folder} {trigger} {action}", "'/home/user/repo' 'repo' 'cleanup' 'cleaned'"},
		{"arg", "{editor} {path}", "'code' '/repo/.worktrees/feature__65a1b2c3'"},
		{"arg raw", `echo "{msg:raw}"`, `echo "it's done"`},
		{"arg with embedded quote", "echo {msg}", `echo 'it'\''s done'`},
		{"missing arg default", "echo {who:-nobody}", "echo 'nobody'"},
		{"missing arg", "echo {who}", "echo ''"},
		{"present arg ignores default", "{editor:-vim}", "'code'"},
		{"shell expansion untouched", "echo ${HOME} {branch}", "echo ${HOME} 'wt/feature'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Substitute(tt.command, hc); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.command, got, tt.want)
			}
		})
	}
}

func TestSubstitute_Escaping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		branch string
		want   string
	}{
		{"command substitution", "$(rm -rf /)", "echo '$(rm -rf /)'"},
		{"backticks", "`id`", "echo '`id`'"},
		{"semicolon", "a; rm x", "echo 'a; rm x'"},
		{"single quote", "it's", `echo 'it'\''s'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Substitute("echo {branch}", Context{Branch: tt.branch}); got != tt.want {
				t.Errorf("Substitute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func names(ms []Match) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return out
}

func TestSelect(t *testing.T) {
	t.Parallel()

	hooks := map[string]config.Hook{
		"deps":   {Command: "npm ci", On: []string{"create"}},
		"notify": {Command: "echo {branch}", On: []string{"cleanup"}},
		"always": {Command: "true", On: []string{"all"}},
		"manual": {Command: "make lint"},
	}

	tests := []struct {
		name    string
		hook    string
		skip    bool
		trigger Trigger
		want    []string
		wantErr bool
	}{
		{name: "create", trigger: TriggerCreate, want: []string{"always", "deps"}},
		{name: "cleanup", trigger: TriggerCleanup, want: []string{"always", "notify"}},
		{name: "explicit ignores on", hook: "manual", trigger: TriggerCreate, want: []string{"manual"}},
		{name: "explicit other trigger", hook: "notify", trigger: TriggerCreate, want: []string{"notify"}},
		{name: "skip", skip: true, trigger: TriggerCreate},
		{name: "skip wins over name", hook: "deps", skip: true, trigger: TriggerCreate},
		{name: "unknown", hook: "nope", trigger: TriggerCreate, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Select(hooks, tt.hook, tt.skip, tt.trigger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Select() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(names(got), tt.want) {
				t.Errorf("Select() = %v, want %v", names(got), tt.want)
			}
		})
	}

	if got, _ := Select(nil, "", false, TriggerCreate); len(got) != 0 {
		t.Errorf("Select(nil) = %v, want none", names(got))
	}
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	got, err := ParseArgs([]string{"a=1", "b=x=y", "empty="})
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	want := map[string]string{"a": "1", "b": "x=y", "empty": ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseArgs() = %v, want %v", got, want)
	}

	for _, bad := range []string{"novalue", "=v"} {
		if _, err := ParseArgs([]string{bad}); err == nil {
			t.Errorf("ParseArgs(%q) should fail", bad)
		}
	}
}

func testContext() context.Context {
	return log.WithLogger(context.Background(), log.New(&bytes.Buffer{}, false, false))
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	matches := []Match{
		{Name: "touch", Hook: config.Hook{Command: "echo {branch} > marker", Description: "marked"}},
		{Name: "fail", Hook: config.Hook{Command: "exit 3"}},
		{Name: "never", Hook: config.Hook{Command: "touch never"}},
	}

	err := Runner{Out: &out}.Run(testContext(), matches, Context{Branch: "wt/x"}, dir)
	if err == nil || !strings.Contains(err.Error(), `hook "fail" failed`) {
		t.Fatalf("Run() error = %v, want failure of hook fail", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "marker"))
	if err != nil || string(data) != "wt/x\n" {
		t.Errorf("marker = %q, %v, want wt/x", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "never")); !os.IsNotExist(err) {
		t.Error("hooks after a failure should not run")
	}
	for _, want := range []string{"Running hook 'touch'...", "✓ marked", "Running hook 'fail'..."} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunner_DryRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	matches := []Match{{Name: "touch", Hook: config.Hook{Command: "touch {action}"}}}

	if err := (Runner{Out: &out, DryRun: true}).Run(testContext(), matches, Context{Action: "cleaned"}, dir); err != nil {
		t.Fatalf("Run(dry-run) error = %v", err)
	}
	if got, want := out.String(), "[dry-run] touch: touch 'cleaned'\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "cleaned")); !os.IsNotExist(err) {
		t.Error("dry run executed the hook")
	}
}

func TestRunner_RunEach(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	matches := []Match{
		{Name: "a-fail", Hook: config.Hook{Command: "exit 1"}},
		{Name: "b-touch", Hook: config.Hook{Command: "touch after"}},
	}

	Runner{Out: &bytes.Buffer{}}.RunEach(testContext(), matches, Context{}, dir)

	if _, err := os.Stat(filepath.Join(dir, "after")); err != nil {
		t.Error("RunEach should continue after a failing hook")
	}
}
