package cacheinfra

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// flight coalesces concurrent fetches of one key within one cache
// generation. A caller that arrives after an invalidation never joins a
// fetch that started before it.
type flight struct {
	group singleflight.Group
}

func flightKey(key string, gen uint64) string {
	return key + "#" + strconv.FormatUint(gen, 10)
}

// do runs fn once per (key, gen). The shared fetch is detached from the
// leader's cancellation; each caller still stops waiting when its own ctx
// is done.
func (f *flight) do(ctx context.Context, key string, gen uint64, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(flightKey(key, gen), func() (any, error) {
		return fn(shared)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}
