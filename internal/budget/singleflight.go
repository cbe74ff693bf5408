package budget

import (
	"context"

	"golang.org/x/sync/singleflight"
)

var trackerGroup singleflight.Group

// trackerSingleflight collapses concurrent tracker rebuilds into one
// repository pass; every waiter receives the same rows. The returned
// slice is shared between waiters and must be treated as read-only.
func trackerSingleflight(ctx context.Context, fn func(context.Context) ([]TrackerRow, error)) ([]TrackerRow, error) {
	resultChan := trackerGroup.DoChan("tracker", func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]TrackerRow), nil
	}
}
