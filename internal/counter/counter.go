package counter

import "context"

// Store is a named shared integer with atomic operations. It backs the
// cross-process concurrency gate: every process pointing at the same store
// competes for the same budget.
type Store interface {
	// IncrBelow atomically increments the counter if its current value is
	// below max. Returns false without mutating when the counter is at or
	// above max.
	IncrBelow(ctx context.Context, name string, max int64) (bool, error)
	// Decr atomically decrements the counter, clamping at zero.
	Decr(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (int64, error)
	Reset(ctx context.Context, name string, value int64) error
}
