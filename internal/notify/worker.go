// Package notify delivers domain events to the external notification sink.
// Delivery runs after the ledger transaction committed; a failure here is
// logged and retried by the queue, never rolled into ledger state.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/riverqueue/river"

	"github.com/nestfund/backend/internal/events"
)

// Worker posts each event to the notification sink webhook.
type Worker struct {
	river.WorkerDefaults[events.NotifyArgs]
	sinkURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewWorker(sinkURL string, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		sinkURL:    sinkURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

func (w *Worker) Work(ctx context.Context, job *river.Job[events.NotifyArgs]) error {
	args := job.Args
	if w.sinkURL == "" {
		// No sink configured: log the event and move on.
		w.log.Info("domain event", "event", args.Event, "pool_id", args.PoolID)
		return nil
	}

	body, err := json.Marshal(args)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.sinkURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.log.Error("delivery_failed", "event", args.Event, "pool_id", args.PoolID, "error", err)
		return fmt.Errorf("notify sink unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.Error("delivery_failed", "event", args.Event, "pool_id", args.PoolID, "status", resp.StatusCode)
		return fmt.Errorf("notify sink returned status %d", resp.StatusCode)
	}
	return nil
}
