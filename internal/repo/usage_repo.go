package repo

import (
	"context"
	"database/sql"

	"github.com/studyforge/studyforge/internal/model"
	"github.com/studyforge/studyforge/internal/pkg/timeutil"
	"github.com/studyforge/studyforge/internal/usage"
)

// UsageRepo backs the usage ledger gate. All mutations are single
// conditional statements so concurrent runs cannot drive a balance negative.
type UsageRepo struct {
	db *sql.DB
}

func NewUsageRepo(db *sql.DB) *UsageRepo {
	return &UsageRepo{db: db}
}

var _ usage.Store = (*UsageRepo)(nil)

func (r *UsageRepo) Balance(ctx context.Context, userID, activity string) (int64, error) {
	const query = `SELECT count FROM usage_ledger WHERE user_id = $1 AND activity = $2`
	var count int64
	err := r.db.QueryRowContext(ctx, query, userID, activity).Scan(&count)
	if err == sql.ErrNoRows {
		// No row means no credits: fail closed.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UsageRepo) DecrementIfPositive(ctx context.Context, userID, activity string) (bool, error) {
	const query = `
		UPDATE usage_ledger SET count = count - 1, mtime = $3
		WHERE user_id = $1 AND activity = $2 AND count > 0
	`
	result, err := r.db.ExecContext(ctx, query, userID, activity, timeutil.NowUnix())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *UsageRepo) Grant(ctx context.Context, userID, activity string, count int64) error {
	const query = `
		INSERT INTO usage_ledger (user_id, activity, count, mtime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, activity) DO UPDATE SET
			count = usage_ledger.count + EXCLUDED.count,
			mtime = EXCLUDED.mtime
	`
	_, err := r.db.ExecContext(ctx, query, userID, activity, count, timeutil.NowUnix())
	return err
}

func (r *UsageRepo) ListByUser(ctx context.Context, userID string) ([]model.UsageLedger, error) {
	const query = `
		SELECT user_id, activity, count, mtime
		FROM usage_ledger
		WHERE user_id = $1
		ORDER BY activity
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.UsageLedger
	for rows.Next() {
		var item model.UsageLedger
		if err := rows.Scan(&item.UserID, &item.Activity, &item.Count, &item.Mtime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *UsageRepo) TopUpBelow(ctx context.Context, activity string, quota int64) (int64, error) {
	const query = `
		UPDATE usage_ledger SET count = $2, mtime = $3
		WHERE activity = $1 AND count < $2
	`
	result, err := r.db.ExecContext(ctx, query, activity, quota, timeutil.NowUnix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
