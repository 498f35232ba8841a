package usage

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

// Store is the persistence behind the ledger. A missing row reads as
// balance 0: the gate fails closed.
type Store interface {
	Balance(ctx context.Context, userID, activity string) (int64, error)
	// DecrementIfPositive conditionally decrements and reports whether a
	// credit was actually consumed.
	DecrementIfPositive(ctx context.Context, userID, activity string) (bool, error)
	Grant(ctx context.Context, userID, activity string, count int64) error
	ListByUser(ctx context.Context, userID string) ([]model.UsageLedger, error)
	TopUpBelow(ctx context.Context, activity string, quota int64) (int64, error)
}

// Ledger gates generation on a per-(user, activity) credit balance. The
// balance check happens before a run starts; the decrement after it
// succeeds. Concurrent runs by one user can race past the check; that small
// over-spend is accepted, credits are a soft cap, not a security boundary.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) CheckBalance(ctx context.Context, userID, activity string) (int64, error) {
	balance, err := l.store.Balance(ctx, userID, activity)
	if err != nil {
		return 0, fmt.Errorf("%w: read balance: %v", appErr.ErrInfra, err)
	}
	return balance, nil
}

// Decrement re-reads the balance right before mutating to narrow the race
// window, refuses to go below zero, and reports failure instead of erroring
// when the balance is exhausted.
func (l *Ledger) Decrement(ctx context.Context, userID, activity string) (bool, error) {
	balance, err := l.store.Balance(ctx, userID, activity)
	if err != nil {
		return false, fmt.Errorf("%w: read balance: %v", appErr.ErrInfra, err)
	}
	if balance <= 0 {
		return false, nil
	}
	ok, err := l.store.DecrementIfPositive(ctx, userID, activity)
	if err != nil {
		return false, fmt.Errorf("%w: decrement balance: %v", appErr.ErrInfra, err)
	}
	if !ok {
		logutil.GetLogger(ctx).Warn("credit raced to zero between check and decrement",
			zap.String("user_id", userID),
			zap.String("activity", activity),
		)
	}
	return ok, nil
}

func (l *Ledger) Grant(ctx context.Context, userID, activity string, count int64) error {
	if count <= 0 {
		return appErr.ErrInvalid
	}
	if err := l.store.Grant(ctx, userID, activity, count); err != nil {
		return fmt.Errorf("%w: grant credits: %v", appErr.ErrInfra, err)
	}
	return nil
}

func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]model.UsageLedger, error) {
	items, err := l.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list balances: %v", appErr.ErrInfra, err)
	}
	return items, nil
}

// TopUpBelow raises every ledger row for activity to quota. Used by the
// monthly grant job.
func (l *Ledger) TopUpBelow(ctx context.Context, activity string, quota int64) (int64, error) {
	if quota <= 0 {
		return 0, appErr.ErrInvalid
	}
	affected, err := l.store.TopUpBelow(ctx, activity, quota)
	if err != nil {
		return 0, fmt.Errorf("%w: top up: %v", appErr.ErrInfra, err)
	}
	return affected, nil
}
