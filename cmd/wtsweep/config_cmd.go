package main

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/config"
	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/log"
	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/worktree"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage wtsweep configuration.

Global config: ~/.config/wtsweep/config.toml ($WTSWEEP_CONFIG overrides)
Local config:  .wtsweep.toml (in the main worktree root)`,
		Example: `  wtsweep config init          # Create default global config
  wtsweep config init --local  # Create local repo config
  wtsweep config show          # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Long: `Create default config file.

Without flags, creates the global config file.
With --local, creates a per-repo .wtsweep.toml in the main worktree root.`,
		Example: `  wtsweep config init           # Create global config
  wtsweep config init --local   # Create local repo config
  wtsweep config init -f        # Overwrite existing config
  wtsweep config init -s        # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			if stdout {
				if local {
					out.Print(config.DefaultLocalConfig())
				} else {
					out.Print(config.DefaultConfig())
				}
				return nil
			}

			var (
				path string
				err  error
			)
			if local {
				mainPath, gitErr := git.MainWorktreePath(ctx, workDirFrom(ctx))
				if gitErr != nil {
					return fmt.Errorf("not in a git repository: %w", gitErr)
				}
				path, err = config.InitLocal(mainPath, force)
			} else {
				path, err = config.Init(force)
			}
			if err != nil {
				return fmt.Errorf("%w (use -f to overwrite)", err)
			}

			l.Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")
	cmd.Flags().BoolVar(&local, "local", false, "Create per-repo .wtsweep.toml instead of global config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var format formatValue

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Long: `Show the effective configuration: the global file merged with the
repository's .wtsweep.toml when run inside a repository. The table format
prints TOML.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			cfg := config.FromContext(ctx)
			r, err := openRepo(ctx)
			switch {
			case err == nil:
				cfg = r.cfg
			case !errors.Is(err, worktree.ErrNotARepository):
				return err
			}

			if f := format.Format(); f != output.FormatTable {
				return out.Encode(f, cfg)
			}
			return toml.NewEncoder(out.Writer()).Encode(cfg)
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}
