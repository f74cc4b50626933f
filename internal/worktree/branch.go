package worktree

import (
	"fmt"
	"strings"
	"unicode"
)

// maxBranchLen is git's practical limit for a ref name component.
const maxBranchLen = 255

// SanitizeTaskID turns free text into a branch-name suffix: characters
// outside [A-Za-z0-9_/-] become '-', runs of '-' collapse, and leading or
// trailing '-' and '/' are trimmed.
func SanitizeTaskID(id string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range id {
		ok := r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '/' || r == '-')
		if !ok || r == '-' {
			if !lastDash {
				b.WriteByte('-')
			}
			lastDash = true
			continue
		}
		b.WriteRune(r)
		lastDash = false
	}
	out := strings.Trim(b.String(), "-/")
	for strings.Contains(out, "//") {
		out = strings.ReplaceAll(out, "//", "/")
	}
	return out
}

// ValidateBranchName rejects names git would refuse or that are unsafe to
// use as a path component.
func ValidateBranchName(name string) error {
	if name == "" {
		return newError(ErrInvalidReference, "branch name cannot be empty")
	}
	if len(name) > maxBranchLen {
		return newError(ErrInvalidReference, "branch name longer than %d bytes", maxBranchLen)
	}
	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune(" ~^:?*[\\", r) {
			return newError(ErrInvalidReference, "branch name %q contains %q", name, r)
		}
	}

	checks := []struct {
		bad bool
		msg string
	}{
		{strings.HasPrefix(name, ".") || strings.HasSuffix(name, "."), "cannot start or end with '.'"},
		{strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"), "cannot start or end with '/'"},
		{strings.Contains(name, ".."), "cannot contain '..'"},
		{strings.Contains(name, "@{"), "cannot contain '@{'"},
		{strings.Contains(name, "//"), "cannot contain '//'"},
		{strings.HasSuffix(name, ".lock"), "cannot end with '.lock'"},
	}
	for _, c := range checks {
		if c.bad {
			return newError(ErrInvalidReference, "branch name %q %s", name, c.msg)
		}
	}
	return nil
}

// BranchName returns prefix + the sanitized task id, validated.
func BranchName(prefix, taskID string) (string, error) {
	id := SanitizeTaskID(taskID)
	if id == "" {
		return "", newError(ErrInvalidReference, "task id %q has no usable characters", taskID)
	}
	name := prefix + id
	if err := ValidateBranchName(name); err != nil {
		return "", fmt.Errorf("task id %q: %w", taskID, err)
	}
	return name, nil
}
