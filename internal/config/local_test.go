package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func writeLocal(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LocalConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return dir
}

func TestLoadLocal_NoFile(t *testing.T) {
	t.Parallel()

	local, err := LoadLocal(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local != nil {
		t.Errorf("LoadLocal without file = %+v, want nil", local)
	}
}

func TestLoadLocal_EmptyFile(t *testing.T) {
	t.Parallel()

	local, err := LoadLocal(writeLocal(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local == nil {
		t.Fatal("LoadLocal(empty) = nil, want empty config")
	}
	if local.Worktree.Prefix != nil || local.Cleanup.MinAge != nil {
		t.Errorf("empty file should leave everything unset, got %+v", local)
	}
}

func TestLoadLocal_AllFields(t *testing.T) {
	t.Parallel()

	dir := writeLocal(t, `
[worktree]
prefix = ""
base_dir = "../trees"
auto_gitignore = false

[merge]
methods = ["standard"]
main_branches = ["develop"]
use_forge = false

[cleanup]
strategy = "stash_and_discard"
min_age = "72h"
merged_only = true
min_merge_confidence = 0.9
delete_branch = false
remote = "backup"
`)

	local, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if local.Worktree.Prefix == nil || *local.Worktree.Prefix != "" {
		t.Errorf("worktree.prefix = %v, want explicit empty", local.Worktree.Prefix)
	}
	if local.Worktree.BaseDir != "../trees" {
		t.Errorf("worktree.base_dir = %q, want ../trees", local.Worktree.BaseDir)
	}
	if local.Merge.UseForge == nil || *local.Merge.UseForge {
		t.Errorf("merge.use_forge = %v, want false", local.Merge.UseForge)
	}
	if local.Cleanup.MinAge == nil || local.Cleanup.MinAge.Duration != 72*time.Hour {
		t.Errorf("cleanup.min_age = %v, want 72h", local.Cleanup.MinAge)
	}
	if local.Cleanup.MinMergeConfidence == nil || *local.Cleanup.MinMergeConfidence != 0.9 {
		t.Errorf("cleanup.min_merge_confidence = %v, want 0.9", local.Cleanup.MinMergeConfidence)
	}
	if local.Cleanup.Remote != "backup" {
		t.Errorf("cleanup.remote = %q, want backup", local.Cleanup.Remote)
	}
}

func TestLoadLocal_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"strategy", "[cleanup]\nstrategy = \"yolo\"\n"},
		{"method", "[merge]\nmethods = [\"guess\"]\n"},
		{"confidence", "[cleanup]\nmin_merge_confidence = -0.1\n"},
		{"duration", "[cleanup]\nmin_age = \"later\"\n"},
		{"toml", "[cleanup\n"},
		{"hook", "[hooks.x]\ncommand = \"\"\non = [\"create\"]\n"},
		{"preserve", "[preserve]\npatterns = [\"a[\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadLocal(writeLocal(t, tt.content)); err == nil {
				t.Error("LoadLocal = nil error, want validation failure")
			}
		})
	}
}

func TestInitLocal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := InitLocal(dir, false)
	if err != nil {
		t.Fatalf("InitLocal failed: %v", err)
	}
	if path != filepath.Join(dir, LocalConfigFileName) {
		t.Errorf("InitLocal path = %q", path)
	}
	if _, err := InitLocal(dir, false); err == nil {
		t.Error("second InitLocal without force should fail")
	}

	local, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if local == nil {
		t.Fatal("template loaded as nil")
	}
}

func TestDefaultLocalConfigIsValidTOML(t *testing.T) {
	t.Parallel()

	var local LocalConfig
	if _, err := toml.Decode(DefaultLocalConfig(), &local); err != nil {
		t.Fatalf("default local config is not valid TOML: %v", err)
	}
}
