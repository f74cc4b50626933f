package worktree

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package and by cleanup wraps
// exactly one of them; match with errors.Is.
var (
	ErrNotARepository   = errors.New("not a git repository")
	ErrInvalidReference = errors.New("invalid reference")
	ErrAlreadyExists    = errors.New("already exists")
	ErrIO               = errors.New("filesystem error")
	ErrProcess          = errors.New("git command failed")
	ErrMergeConflict    = errors.New("merge conflict")
	ErrRemote           = errors.New("remote operation failed")
)

var kinds = []error{
	ErrNotARepository,
	ErrInvalidReference,
	ErrAlreadyExists,
	ErrIO,
	ErrProcess,
	ErrMergeConflict,
	ErrRemote,
}

// Kind returns the error kind err wraps, or nil.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// WrapError annotates err with msg and tags it with kind, unless err
// already carries a kind, in which case that one is kept.
func WrapError(kind error, msg string, err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, kind, err)
}

func newError(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
