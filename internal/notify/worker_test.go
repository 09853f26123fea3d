package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/nestfund/backend/internal/events"
)

func job(args events.NotifyArgs) *river.Job[events.NotifyArgs] {
	return &river.Job[events.NotifyArgs]{Args: args}
}

func TestWorkerPostsEventToSink(t *testing.T) {
	var got events.NotifyArgs
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	poolID := uuid.New()
	w := NewWorker(srv.URL, nil)
	err := w.Work(context.Background(), job(events.NotifyArgs{
		Event:      events.PoolRotated,
		PoolID:     poolID,
		OccurredAt: time.Now(),
	}))
	if err != nil {
		t.Fatalf("Work: %v", err)
	}
	if got.Event != events.PoolRotated || got.PoolID != poolID {
		t.Fatalf("sink received %+v", got)
	}
}

func TestWorkerReturnsErrorOnSinkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWorker(srv.URL, nil)
	err := w.Work(context.Background(), job(events.NotifyArgs{Event: events.PaymentOverdue, PoolID: uuid.New()}))
	if err == nil {
		t.Fatal("expected error for non-2xx sink response")
	}
}

func TestWorkerLogsOnlyWithoutSink(t *testing.T) {
	w := NewWorker("", nil)
	err := w.Work(context.Background(), job(events.NotifyArgs{Event: events.PoolCompleted, PoolID: uuid.New()}))
	if err != nil {
		t.Fatalf("Work: %v", err)
	}
}
