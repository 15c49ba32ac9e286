package geoguessr

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// shareCall runs fn once per key on a context detached from any single caller,
// so one caller giving up does not fail the others waiting on the same key.
// Each caller still returns as soon as its own ctx is done.
func shareCall(ctx context.Context, group *singleflight.Group, key string, fn func(context.Context) (any, error)) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	detached := context.WithoutCancel(ctx)
	ch := group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	}
}
