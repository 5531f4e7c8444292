package maplib

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
)

type indexedOutcome struct {
	index   int
	outcome Outcome
}

type lookupTask struct {
	ctx     context.Context
	index   int
	key     string
	results chan<- indexedOutcome
}

// chunkRequest is a single wave of lookups. Each key is scheduled as
// an independent task of the worker pool; tasks report back with
// indexed outcomes and only collector writes into the resulting slice.
type chunkRequest struct {
	ctx       context.Context
	keys      []string
	results   chan indexedOutcome
	pool      *ants.PoolWithFunc
	scheduled int
}

func (c *chunkRequest) Do() error {
	for i, key := range c.keys {
		select {
		case <-c.ctx.Done():
			return nil
		default:
		}

		req := &lookupTask{
			ctx:     c.ctx,
			index:   i,
			key:     key,
			results: c.results,
		}

		if err := c.pool.Invoke(req); err != nil {
			return fmt.Errorf("cannot schedule a lookup of %s: %w", key, err)
		}

		c.scheduled++
	}

	return nil
}

// Collect waits for all scheduled tasks and puts their outcomes into
// dst. dst must have the same length as keys. If context is closed
// before all tasks are done, missing outcomes become lookup errors.
func (c *chunkRequest) Collect(dst []Outcome) {
	done := make([]bool, len(c.keys))

loop:
	for received := 0; received < c.scheduled; received++ {
		select {
		case <-c.ctx.Done():
			break loop
		case res := <-c.results:
			dst[res.index] = res.outcome
			done[res.index] = true
		}
	}

	// some tasks could finish at the same time context was closed
drain:
	for {
		select {
		case res := <-c.results:
			dst[res.index] = res.outcome
			done[res.index] = true
		default:
			break drain
		}
	}

	for i, v := range done {
		if !v {
			dst[i] = Outcome{
				Key:     c.keys[i],
				Failure: FailureLookupError,
				Err:     fmt.Errorf("lookup was not completed: %w", c.ctx.Err()),
			}
		}
	}
}

func newChunkRequest(ctx context.Context, keys []string, pool *ants.PoolWithFunc) *chunkRequest {
	return &chunkRequest{
		ctx:     ctx,
		keys:    keys,
		results: make(chan indexedOutcome, len(keys)),
		pool:    pool,
	}
}
