package reconcile

import (
	"context"
	"testing"
	"time"

	"pdf-extract-viewer/internal/domain"
)

// waitFor polls a condition instead of sleeping a fixed interval, so tests
// stay fast on quick machines and stable on slow ones.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

func TestReconciler_InitialStateFollowsRecord(t *testing.T) {
	r := NewReconciler(&domain.Document{ID: "doc-1", Status: domain.StatusProcessing}, nil)
	if !r.IsExtracting() {
		t.Fatalf("processing record must start extracting")
	}

	r = NewReconciler(&domain.Document{ID: "doc-1", Status: domain.StatusCompleted}, nil)
	if r.IsExtracting() {
		t.Fatalf("terminal record must not start extracting")
	}

	r = NewReconciler(nil, nil)
	if !r.IsExtracting() {
		t.Fatalf("unknown record starts extracting until told otherwise")
	}
}

func TestReconciler_ApplyReplaysAreIdempotent(t *testing.T) {
	r := NewReconciler(&domain.Document{ID: "doc-1", Status: domain.StatusProcessing}, nil)

	done := &domain.Document{ID: "doc-1", Status: domain.StatusCompleted, PageCount: 3}
	r.Apply(done)
	r.Apply(done)

	snap := r.Snapshot()
	if snap.Status != domain.StatusCompleted || snap.PageCount != 3 {
		t.Fatalf("unexpected snapshot after replay: %+v", snap)
	}
	if r.IsExtracting() {
		t.Fatalf("expected extracting false after terminal record")
	}
}

func TestReconciler_PushWinsAndCancelsPoller(t *testing.T) {
	hub := NewHub()
	updates, cancelSub := hub.Subscribe("doc-1")
	defer cancelSub()

	var probes int
	poller := &Poller{
		Probe: func(ctx context.Context) (bool, error) {
			probes++
			return false, nil
		},
		Fetch: func(ctx context.Context) (*domain.Document, error) { return nil, nil },
		// Block each attempt until the context is cancelled, standing in for
		// a long real-world interval.
		Sleep: func(ctx context.Context, d time.Duration) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	r := NewReconciler(&domain.Document{ID: "doc-1", Status: domain.StatusProcessing}, nil)
	r.Start(context.Background(), updates, poller)

	hub.Publish(&domain.Document{ID: "doc-1", Status: domain.StatusCompleted})

	waitFor(t, func() bool { return !r.IsExtracting() }, "push delivery applied")
	r.Stop()

	if r.Snapshot().Status != domain.StatusCompleted {
		t.Fatalf("expected completed snapshot, got %s", r.Snapshot().Status)
	}
	if poller.State() != PollStopped {
		t.Fatalf("expected poller stopped after push won, got %d", poller.State())
	}
	if probes != 0 {
		t.Fatalf("expected no probes when push wins during the first interval, got %d", probes)
	}
}

func TestReconciler_PollWins(t *testing.T) {
	hub := NewHub()
	updates, cancelSub := hub.Subscribe("doc-1")
	defer cancelSub()

	done := &domain.Document{ID: "doc-1", Status: domain.StatusCompleted}
	poller := &Poller{
		Probe: func(ctx context.Context) (bool, error) { return true, nil },
		Fetch: func(ctx context.Context) (*domain.Document, error) { return done, nil },
		Sleep: instantSleep,
	}

	r := NewReconciler(&domain.Document{ID: "doc-1", Status: domain.StatusProcessing}, nil)
	r.Start(context.Background(), updates, poller)

	waitFor(t, func() bool { return !r.IsExtracting() }, "poll result applied")
	r.Stop()

	if r.Snapshot() != done {
		t.Fatalf("expected the polled record as snapshot")
	}
}

func TestReconciler_PollExhaustionLeavesExtracting(t *testing.T) {
	updates := make(chan *domain.Document)

	poller := &Poller{
		Probe:  func(ctx context.Context) (bool, error) { return false, nil },
		Fetch:  func(ctx context.Context) (*domain.Document, error) { return nil, nil },
		Sleep:  instantSleep,
		Logger: &mockReconcileLogger{},
	}

	initial := &domain.Document{ID: "doc-1", Status: domain.StatusProcessing}
	r := NewReconciler(initial, &mockReconcileLogger{})
	r.Start(context.Background(), updates, poller)

	waitFor(t, func() bool { return poller.State() == PollStopped }, "poller exhausted its budget")

	// The budget ran out without the document completing. This is not a
	// failure state: the snapshot is untouched and extracting stays true.
	if !r.IsExtracting() {
		t.Fatalf("exhaustion must not flip extracting to false")
	}
	if r.Snapshot() != initial {
		t.Fatalf("exhaustion must not replace the snapshot")
	}

	close(updates)
	r.Stop()
}
