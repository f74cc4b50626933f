package worktree

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel status refreshes.
const DefaultConcurrency = 4

// UpdateStatuses refreshes the status of every entry of infos in place,
// at most limit at a time. One failure does not stop the others; the
// failed entries keep a nil Status and their errors are joined.
func (m *Manager) UpdateStatuses(ctx context.Context, infos []Info, detector *MergeDetector, limit int) error {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	errs := make([]error, len(infos))
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range infos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			if err := m.UpdateStatus(ctx, &infos[i], detector); err != nil {
				errs[i] = fmt.Errorf("%s: %w", infos[i].Path, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
