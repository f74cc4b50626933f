package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/raphi011/wtsweep/internal/cleanup"
	"github.com/raphi011/wtsweep/internal/config"
	"github.com/raphi011/wtsweep/internal/hooks"
	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/worktree"
)

// strategyValue is a --strategy flag.
type strategyValue struct {
	s cleanup.Strategy
}

var _ pflag.Value = (*strategyValue)(nil)

func (v *strategyValue) String() string { return string(v.s) }
func (v *strategyValue) Type() string   { return "strategy" }

func (v *strategyValue) Set(s string) error {
	st, err := cleanup.ParseStrategy(s)
	if err != nil {
		return err
	}
	v.s = st
	return nil
}

// formatValue is a --format flag.
type formatValue struct {
	f output.Format
}

var _ pflag.Value = (*formatValue)(nil)

func (v *formatValue) String() string {
	if v.f == "" {
		return string(output.FormatTable)
	}
	return string(v.f)
}

func (v *formatValue) Type() string { return "format" }

func (v *formatValue) Set(s string) error {
	f, err := output.ParseFormat(s)
	if err != nil {
		return err
	}
	v.f = f
	return nil
}

// Format returns the chosen format, table by default.
func (v *formatValue) Format() output.Format {
	if v.f == "" {
		return output.FormatTable
	}
	return v.f
}

// methodsValue is a repeatable --method flag that also accepts
// comma-separated lists.
type methodsValue struct {
	methods []worktree.Method
}

var _ pflag.Value = (*methodsValue)(nil)

func (v *methodsValue) String() string {
	names := make([]string, len(v.methods))
	for i, m := range v.methods {
		names[i] = string(m)
	}
	return strings.Join(names, ",")
}

func (v *methodsValue) Type() string { return "method" }

func (v *methodsValue) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if err := config.ValidateMethod(name); err != nil {
			return err
		}
		m := worktree.Method(name)
		if !slices.Contains(v.methods, m) {
			v.methods = append(v.methods, m)
		}
	}
	return nil
}

func addFormatFlag(cmd *cobra.Command, v *formatValue) {
	cmd.Flags().VarP(v, "format", "o", fmt.Sprintf("Output format (%s)", strings.Join(output.Formats, ", ")))
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(output.Formats, cobra.ShellCompDirectiveNoFileComp))
}

func addStrategyFlag(cmd *cobra.Command, v *strategyValue) {
	names := make([]string, len(cleanup.Strategies))
	for i, s := range cleanup.Strategies {
		names[i] = string(s)
	}
	cmd.Flags().Var(v, "strategy", fmt.Sprintf("Cleanup strategy (%s)", strings.Join(names, ", ")))
	_ = cmd.RegisterFlagCompletionFunc("strategy", cobra.FixedCompletions(names, cobra.ShellCompDirectiveNoFileComp))
}

func addMethodFlag(cmd *cobra.Command, v *methodsValue) {
	cmd.Flags().Var(v, "method", fmt.Sprintf("Detection method, repeatable (%s)", strings.Join(config.ValidMethods, ", ")))
	_ = cmd.RegisterFlagCompletionFunc("method", cobra.FixedCompletions(config.ValidMethods, cobra.ShellCompDirectiveNoFileComp))
}

// hookFlags are --hook, --no-hook and --arg.
type hookFlags struct {
	name string
	skip bool
	args []string
}

func (h *hookFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&h.name, "hook", "", "Run only this hook, even if its \"on\" does not match")
	fl.BoolVar(&h.skip, "no-hook", false, "Do not run any hooks")
	fl.StringArrayVarP(&h.args, "arg", "a", nil, "Hook variable as key=value, available as {key} (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("hook", "no-hook")
	_ = cmd.RegisterFlagCompletionFunc("hook", completeHooks)
}

// selected returns the hooks to run for trigger and the parsed --arg values.
func (h *hookFlags) selected(cfg *config.Config, trigger hooks.Trigger) ([]hooks.Match, map[string]string, error) {
	env, err := hooks.ParseArgs(h.args)
	if err != nil {
		return nil, nil, err
	}
	matches, err := hooks.Select(cfg.Hooks, h.name, h.skip, trigger)
	if err != nil {
		return nil, nil, err
	}
	return matches, env, nil
}

func completeHooks(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(cfg.Hooks))
	for name, h := range cfg.Hooks {
		if strings.HasPrefix(name, toComplete) {
			names = append(names, name+"\t"+h.Description)
		}
	}
	slices.Sort(names)
	return names, cobra.ShellCompDirectiveNoFileComp
}
