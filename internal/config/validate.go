package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Valid enum values for configuration fields.
var (
	ValidForgeTypes = []string{"github", "gitlab"}
	ValidMethods    = []string{"standard", "squash", "github_pr", "file_content"}
	ValidStrategies = []string{"discard", "merge_to_feature", "backup_to_origin", "stash_and_discard"}
	ValidLogLevels  = []string{"debug", "info", "warn", "error"}
	ValidTriggers   = []string{"create", "cleanup", "all"}
)

// ValidateStrategy validates a cleanup strategy name.
// Exported for use in CLI flag validation.
func ValidateStrategy(s string) error {
	return validateEnum(s, "strategy", ValidStrategies)
}

// ValidateMethod validates a merge detection method name.
func ValidateMethod(m string) error {
	return validateEnum(m, "method", ValidMethods)
}

// validateEnum checks that value (if non-empty) is one of the allowed values.
// Returns a formatted error mentioning the field name and allowed options.
func validateEnum(value, field string, allowed []string) error {
	if value == "" {
		return nil
	}
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s %q: must be %s", field, value, formatOptions(allowed))
	}
	return nil
}

func validateConfidence(v float64, field string) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("invalid %s %v: must be between 0 and 1", field, v)
	}
	return nil
}

// formatOptions formats a list of allowed values for error messages.
// E.g., ["a", "b", "c"] -> `"a", "b", or "c"`
func formatOptions(opts []string) string {
	quoted := make([]string, len(opts))
	for i, o := range opts {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	if len(quoted) <= 2 {
		return strings.Join(quoted, " or ")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}

func validatePreserve(p PreserveConfig) error {
	for i, pat := range p.Patterns {
		if _, err := filepath.Match(pat, ""); err != nil {
			return fmt.Errorf("invalid preserve.patterns[%d] %q: %w", i, pat, err)
		}
	}
	return nil
}

func validateHooks(hooks map[string]Hook) error {
	for name, h := range hooks {
		if h.Enabled != nil && !*h.Enabled {
			continue
		}
		if h.Command == "" {
			return fmt.Errorf("hook %q: %w", name, errors.New("command must not be empty"))
		}
		for _, on := range h.On {
			if err := validateEnum(on, fmt.Sprintf("trigger for hook %q", name), ValidTriggers); err != nil {
				return err
			}
		}
	}
	return nil
}
