package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnaddressable is returned by a Remote for items it has no place for.
var ErrUnaddressable = errors.New("item has no remote address")

// Reconcile pushes local records the remote store has not acknowledged,
// oldest first. Positions are marked synced; pending watched marks are sent
// and their records dropped. It returns how many were pushed.
// Records the remote rejects with ErrUnaddressable are skipped.
func Reconcile(ctx context.Context, store *LocalStore, remote Remote) (int, error) {
	if store == nil || remote == nil {
		return 0, nil
	}

	pending := store.All()
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].UpdatedAt.Before(pending[j].UpdatedAt)
	})

	var (
		pushed int
		errs   []error
	)

	for _, r := range pending {
		if r.Synced || r.Position <= 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		push, settle := remote.SaveProgress, store.MarkSynced
		if r.Watched {
			push = remote.MarkWatched
			settle = func(key string, _ float64) error { return store.ClearWatched(key) }
		}

		err := push(ctx, r.Item(), r.Position)
		if errors.Is(err, ErrUnaddressable) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Key, err))
			continue
		}
		if err := settle(r.Key, r.Position); err != nil {
			errs = append(errs, err)
			continue
		}
		pushed++
	}

	return pushed, errors.Join(errs...)
}
