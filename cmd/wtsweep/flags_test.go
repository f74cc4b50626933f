package main

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/raphi011/wtsweep/internal/cleanup"
	"github.com/raphi011/wtsweep/internal/config"
	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/worktree"
)

func TestStrategyValue(t *testing.T) {
	t.Parallel()

	var v strategyValue
	if err := v.Set("stash-and-discard"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v.s != cleanup.StashAndDiscard {
		t.Errorf("strategy = %q, want stash_and_discard", v.s)
	}
	if err := v.Set("shred"); err == nil {
		t.Error("Set(shred) should fail")
	}
	if v.s != cleanup.StashAndDiscard {
		t.Errorf("failed Set changed the value to %q", v.s)
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	var v formatValue
	if v.Format() != output.FormatTable || v.String() != "table" {
		t.Errorf("zero value = %q/%q, want table", v.Format(), v.String())
	}
	if err := v.Set("yaml"); err != nil || v.Format() != output.FormatYAML {
		t.Errorf("Set(yaml) = %v, format %q", err, v.Format())
	}
	if err := v.Set("xml"); err == nil {
		t.Error("Set(xml) should fail")
	}
}

func TestMethodsValue(t *testing.T) {
	t.Parallel()

	var v methodsValue
	for _, s := range []string{"squash", "standard, squash", "FILE_CONTENT"} {
		if err := v.Set(s); err != nil {
			t.Fatalf("Set(%q) error = %v", s, err)
		}
	}
	want := []worktree.Method{worktree.MethodSquash, worktree.MethodStandard, worktree.MethodFileContent}
	if !reflect.DeepEqual(v.methods, want) {
		t.Errorf("methods = %v, want %v", v.methods, want)
	}
	if v.String() != "squash,standard,file_content" {
		t.Errorf("String() = %q", v.String())
	}
	if err := v.Set("telepathy"); err == nil {
		t.Error("Set(telepathy) should fail")
	}
}

func TestCleanupFlags_Options(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Cleanup.Strategy = "backup_to_origin"
	cfg.Cleanup.MergedOnly = true
	r := &repo{cfg: &cfg}

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, o cleanup.Options)
	}{
		{
			name: "config defaults",
			check: func(t *testing.T, o cleanup.Options) {
				if o.Strategy != cleanup.BackupToOrigin || o.MinAge != 24*time.Hour || !o.MergedOnly {
					t.Errorf("options = %+v, want config values", o)
				}
				if o.Prefix != "wt/" || o.KeepBranch || o.Remote != "origin" || o.MinMergeConfidence != 0.8 {
					t.Errorf("options = %+v, want config values", o)
				}
				if o.WorkingDir != "/work" {
					t.Errorf("WorkingDir = %q, want /work", o.WorkingDir)
				}
			},
		},
		{
			name: "flags override",
			args: []string{"--strategy", "discard", "--min-age", "0s", "--prefix", "", "--min-confidence", "0.5", "--keep-branch", "-y", "-n", "-f"},
			check: func(t *testing.T, o cleanup.Options) {
				if o.Strategy != cleanup.Discard || o.MinAge != 0 || o.Prefix != "" || o.MinMergeConfidence != 0.5 {
					t.Errorf("options = %+v, want flag values", o)
				}
				if !o.KeepBranch || !o.AutoConfirm || !o.DryRun || !o.Force {
					t.Errorf("options = %+v, want flag values", o)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := new(cleanupFlags)
			cmd := f.command()
			cmd.SetContext(withWorkDir(context.Background(), "/work"))
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			opts, err := f.options(cmd, r)
			if err != nil {
				t.Fatalf("options() error = %v", err)
			}
			tt.check(t, opts)
		})
	}
}

func TestCleanupFlags_OptionsInvalid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	r := &repo{cfg: &cfg}
	for _, args := range [][]string{
		{"--min-confidence", "1.5"},
		{"--min-age", "-1h"},
	} {
		f := new(cleanupFlags)
		cmd := f.command()
		cmd.SetContext(context.Background())
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}
		if _, err := f.options(cmd, r); err == nil {
			t.Errorf("options(%v) should fail", args)
		}
	}
}
