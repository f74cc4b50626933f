package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/cmd"
	"github.com/raphi011/wtsweep/internal/config"
	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/log"
	"github.com/raphi011/wtsweep/internal/output"
)

// Command group IDs for organizing help output
// exitInterrupted is the conventional status after SIGINT.
const exitInterrupted = 130

const (
	GroupCore     = "core"
	GroupAnalysis = "analysis"
	GroupConfig   = "config"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	verbose bool
	quiet   bool
	dir     string
	logFile string
	timeout time.Duration
}

// session holds what PersistentPreRunE set up and Execute tears down.
type session struct {
	closeLog func() error
}

func (s *session) close() {
	if s.closeLog != nil {
		_ = s.closeLog()
		s.closeLog = nil
	}
}

// newRootCmd builds the command tree. stdout and stderr receive primary
// data and diagnostics respectively.
func newRootCmd(stdout, stderr io.Writer, s *session) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "wtsweep",
		Short: "Create, inspect and safely clean up git worktrees",
		Long: `wtsweep manages git worktrees for task branches.

It creates worktrees on prefixed branches, reports their unsaved work,
detects whether their branches were merged (including squash merges and
merged pull requests) and removes the ones that are safe to remove.`,
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 2, // Enable typo suggestions
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			// Skip setup for completion and help commands
			if c.Name() == "completion" || c.Name() == "__complete" || c.Name() == "help" {
				return nil
			}
			if err := git.CheckGit(); err != nil {
				return err
			}
			ctx, err := setup(c.Context(), flags, stdout, stderr, s)
			if err != nil {
				return err
			}
			c.SetContext(ctx)
			return nil
		},
		// Run is not set - shows help when no subcommand provided
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Show external commands being executed")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress all log output")
	pf.StringVarP(&flags.dir, "directory", "C", "", "Run as if started in this directory")
	pf.StringVar(&flags.logFile, "log-file", "", "Write a structured JSON log to this file (overrides log.file)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Deadline for each git/gh/glab invocation (overrides process.timeout)")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")
	_ = root.MarkPersistentFlagDirname("directory")

	root.Version = versionString()
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core Commands:"},
		&cobra.Group{ID: GroupAnalysis, Title: "Analysis Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	// Core commands
	root.AddCommand(newCreateCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newCleanupCmd())

	// Analysis commands
	root.AddCommand(newDetectCmd())
	root.AddCommand(newRecommendCmd())
	root.AddCommand(newConflictsCmd())

	// Config commands
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// setup loads configuration and attaches the logger, printer, config
// resolver and working directory to ctx.
func setup(ctx context.Context, flags globalFlags, stdout, stderr io.Writer, s *session) (context.Context, error) {
	logger := log.New(stderr, flags.verbose, flags.quiet)

	global, err := config.Load()
	if err != nil {
		return ctx, err
	}

	workDir := flags.dir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return ctx, fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	logFile := global.Log.File
	if flags.logFile != "" {
		logFile = flags.logFile
	}
	if logFile != "" {
		sink, closeFn, err := log.NewFileSink(log.FileConfig{
			Path:       logFile,
			Level:      global.Log.Level,
			MaxSizeMB:  global.Log.MaxSizeMB,
			MaxBackups: global.Log.MaxBackups,
			MaxAgeDays: global.Log.MaxAgeDays,
		})
		if err != nil {
			return ctx, err
		}
		logger = logger.WithSink(sink)
		s.closeLog = closeFn
	}

	timeout := global.Process.Timeout.Duration
	if flags.timeout > 0 {
		timeout = flags.timeout
	}

	ctx = log.WithLogger(ctx, logger)
	ctx = output.WithPrinter(ctx, stdout)
	ctx = config.WithConfig(ctx, &global)
	ctx = config.WithResolver(ctx, config.NewResolver(&global))
	ctx = withWorkDir(ctx, workDir)
	ctx = cmd.WithTimeout(ctx, timeout)
	return ctx, nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// downsample or strip colors to what the terminal supports
	stdout := colorprofile.NewWriter(os.Stdout, os.Environ())
	stderr := colorprofile.NewWriter(os.Stderr, os.Environ())

	var s session
	root := newRootCmd(stdout, stderr, &s)
	err := root.ExecuteContext(ctx)
	s.close()
	if err == nil {
		return 0
	}

	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'wtsweep -h' for help")
	return 1
}
