package pool

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/nestfund/backend/internal/events"
)

// OverdueWorker runs the scheduled overdue sweep for a cycle. One job is
// enqueued per cycle when it opens, scheduled at dueAt plus grace.
type OverdueWorker struct {
	river.WorkerDefaults[events.OverdueCheckArgs]
	engine *Engine
	log    *slog.Logger
}

func NewOverdueWorker(engine *Engine, log *slog.Logger) *OverdueWorker {
	if log == nil {
		log = slog.Default()
	}
	return &OverdueWorker{engine: engine, log: log}
}

func (w *OverdueWorker) Work(ctx context.Context, job *river.Job[events.OverdueCheckArgs]) error {
	args := job.Args
	if err := w.engine.CheckOverdue(ctx, args.PoolID, args.CycleNumber, time.Now()); err != nil {
		w.log.Error("overdue sweep failed", "pool_id", args.PoolID, "cycle", args.CycleNumber, "error", err)
		return err
	}
	return nil
}
