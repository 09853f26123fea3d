package trust

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// CycleOutcomeArgs carries a closed cycle's payment results to the trust
// worker. Enqueued in the same transaction that closes the cycle, worked
// afterwards so scoring stays off the payment hot path.
type CycleOutcomeArgs struct {
	PoolID        uuid.UUID        `json:"pool_id"`
	CycleNumber   int              `json:"cycle_number"`
	Outcomes      []PaymentOutcome `json:"outcomes"`
	PoolCompleted bool             `json:"pool_completed"`
	OrganizerID   uuid.UUID        `json:"organizer_id"`
	MemberIDs     []uuid.UUID      `json:"member_ids"`
}

func (CycleOutcomeArgs) Kind() string { return "trust_cycle_outcome" }

// CycleOutcomeWorker applies cycle outcomes to trust profiles.
type CycleOutcomeWorker struct {
	river.WorkerDefaults[CycleOutcomeArgs]
	svc *Service
	log *slog.Logger
}

func NewCycleOutcomeWorker(svc *Service, log *slog.Logger) *CycleOutcomeWorker {
	if log == nil {
		log = slog.Default()
	}
	return &CycleOutcomeWorker{svc: svc, log: log}
}

func (w *CycleOutcomeWorker) Work(ctx context.Context, job *river.Job[CycleOutcomeArgs]) error {
	args := job.Args
	if err := w.svc.ApplyCycleOutcome(ctx, args.Outcomes); err != nil {
		return err
	}
	if args.PoolCompleted {
		if err := w.svc.ApplyPoolCompleted(ctx, args.MemberIDs, args.OrganizerID); err != nil {
			return err
		}
	}
	w.log.Info("trust outcomes applied", "pool_id", args.PoolID, "cycle", args.CycleNumber, "members", len(args.Outcomes))
	return nil
}
