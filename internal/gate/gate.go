package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/counter"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

// Gate is a cross-process semaphore over a shared counter. The upstream AI
// provider enforces a global concurrency ceiling, so a short client-side
// wait is cheaper than recovering from its 429s.
type Gate struct {
	store counter.Store
	name  string
	max   int64
	retry time.Duration
}

func New(store counter.Store, name string, max int64, retry time.Duration) *Gate {
	if max <= 0 {
		max = 1
	}
	if retry <= 0 {
		retry = 500 * time.Millisecond
	}
	return &Gate{store: store, name: name, max: max, retry: retry}
}

// Acquire polls with a fixed retry delay until a slot is free, then claims
// it atomically. There is no built-in deadline; callers wanting bounded wait
// pass a ctx with one.
func (g *Gate) Acquire(ctx context.Context) error {
	for {
		ok, err := g.store.IncrBelow(ctx, g.name, g.max)
		if err != nil {
			return fmt.Errorf("%w: acquire slot: %v", appErr.ErrInfra, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.retry):
		}
	}
}

// Release returns a slot. Errors are logged, not returned: a leaked slot is
// corrected by the sweeper job, and the caller's own result matters more.
func (g *Gate) Release(ctx context.Context) {
	if err := g.store.Decr(ctx, g.name); err != nil {
		logutil.GetLogger(ctx).Error("release concurrency slot failed",
			zap.String("counter", g.name),
			zap.Error(err),
		)
	}
}

// Do runs fn while holding a slot. The slot is released on every exit path,
// including panic.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release(ctx)
	return fn(ctx)
}

// InFlight reports the current counter value.
func (g *Gate) InFlight(ctx context.Context) (int64, error) {
	v, err := g.store.Get(ctx, g.name)
	if err != nil {
		return 0, fmt.Errorf("%w: read counter: %v", appErr.ErrInfra, err)
	}
	return v, nil
}

// Clamp forces the counter back into [0, max] if drift is ever observed,
// e.g. after a crashed process leaked its slot. Returns the corrected value.
func (g *Gate) Clamp(ctx context.Context) (int64, bool, error) {
	v, err := g.store.Get(ctx, g.name)
	if err != nil {
		return 0, false, fmt.Errorf("%w: read counter: %v", appErr.ErrInfra, err)
	}
	if v >= 0 && v <= g.max {
		return v, false, nil
	}
	fixed := v
	if fixed < 0 {
		fixed = 0
	}
	if fixed > g.max {
		fixed = g.max
	}
	if err := g.store.Reset(ctx, g.name, fixed); err != nil {
		return v, false, fmt.Errorf("%w: reset counter: %v", appErr.ErrInfra, err)
	}
	logutil.GetLogger(ctx).Warn("corrective counter reset",
		zap.String("counter", g.name),
		zap.Int64("observed", v),
		zap.Int64("reset_to", fixed),
	)
	return fixed, true, nil
}
