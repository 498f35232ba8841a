package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/engine"
	"github.com/studyforge/studyforge/internal/usage"
)

// CreditGrantJob tops every active user up to the monthly quota for each
// generation mode. Top-up, not add: balances already at or above the quota
// are left alone, so credits do not accumulate across months.
type CreditGrantJob struct {
	ledger *usage.Ledger
	quota  int64
}

func NewCreditGrantJob(ledger *usage.Ledger, quota int64) *CreditGrantJob {
	return &CreditGrantJob{ledger: ledger, quota: quota}
}

func (j *CreditGrantJob) Name() string {
	return "credit_grant"
}

func (j *CreditGrantJob) Run(ctx context.Context) error {
	if j.ledger == nil || j.quota <= 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	for _, mode := range engine.Modes() {
		affected, err := j.ledger.TopUpBelow(ctx, string(mode), j.quota)
		if err != nil {
			return err
		}
		logger.Info("credit top-up applied",
			zap.String("activity", string(mode)),
			zap.Int64("accounts", affected))
	}
	return nil
}
