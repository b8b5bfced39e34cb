package endpoint

import (
	"sync"
	"time"

	convCtx "github.com/sofmon/actuator/lib/ctx"
)

type cachedResponse struct {
	value    any
	storedAt time.Time
}

type cachingInvoker struct {
	next Invoker
	ttl  time.Duration

	mut    sync.Mutex
	cached *cachedResponse
}

func newCachingInvoker(next Invoker, ttl time.Duration) Invoker {
	c := &cachingInvoker{next: next, ttl: ttl}
	return c.invoke
}

// invoke serves the cached response while it is younger than ttl. Errors are
// never cached.
func (c *cachingInvoker) invoke(ctx convCtx.Context, args Arguments) (any, error) {

	now := ctx.Now()

	c.mut.Lock()
	cached := c.cached
	c.mut.Unlock()

	if cached != nil && now.Sub(cached.storedAt) < c.ttl {
		return cached.value, nil
	}

	value, err := c.next(ctx, args)
	if err != nil {
		return nil, err
	}

	c.mut.Lock()
	c.cached = &cachedResponse{value: value, storedAt: now}
	c.mut.Unlock()

	return value, nil
}
