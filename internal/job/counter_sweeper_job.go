package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/gate"
)

// CounterSweeperJob repairs the shared concurrency counter. A process that
// dies between acquire and release leaks a slot forever; the sweep pulls
// the counter back into the valid range so the fleet does not starve.
type CounterSweeperJob struct {
	gate *gate.Gate
}

func NewCounterSweeperJob(g *gate.Gate) *CounterSweeperJob {
	return &CounterSweeperJob{gate: g}
}

func (j *CounterSweeperJob) Name() string {
	return "counter_sweeper"
}

func (j *CounterSweeperJob) Run(ctx context.Context) error {
	if j.gate == nil {
		return nil
	}
	value, fixed, err := j.gate.Clamp(ctx)
	if err != nil {
		return err
	}
	if fixed {
		logutil.GetLogger(ctx).Warn("concurrency counter was out of range, reset",
			zap.Int64("value", value))
	}
	return nil
}
