package reconcile

import (
	"context"
	"errors"
	"sync"

	"pdf-extract-viewer/internal/domain"
)

// Reconciler keeps an in-memory snapshot of one document current. It runs a
// push subscription and the fallback poller in parallel; whichever observes
// a terminal status first wins and cancels the other. If polling exhausts
// its attempt budget the snapshot stays in its extracting state without
// error.
type Reconciler struct {
	logger domain.Logger

	mu         sync.Mutex
	snapshot   *domain.Document
	extracting bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReconciler(initial *domain.Document, logger domain.Logger) *Reconciler {
	return &Reconciler{
		logger:     logger,
		snapshot:   initial,
		extracting: initial == nil || !initial.Status.Terminal(),
	}
}

// Start launches the push and poll channels. updates is the hub
// subscription; the poller carries the probe/fetch callbacks. Start returns
// immediately; Stop (or terminal completion) ends both loops.
func (r *Reconciler) Start(ctx context.Context, updates <-chan *domain.Document, poller *Poller) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	if poller != nil && poller.Alive == nil {
		poller.Alive = r.IsExtracting
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case doc, ok := <-updates:
				if !ok {
					return
				}
				r.Apply(doc)
			}
		}
	}()

	if poller == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		doc, err := poller.Run(ctx)
		switch {
		case err == nil:
			r.Apply(doc)
		case errors.Is(err, ErrPollExhausted):
			// Still processing after the full budget. Not an error: the
			// viewer shows a neutral "taking longer than usual" state.
			if r.logger != nil {
				r.logger.Info("Polling stopped after attempt cap, document still processing")
			}
		}
	}()
}

// Apply replaces the local snapshot with a full record. Replays of the same
// record are harmless. A terminal record wins the race and cancels the
// other channel.
func (r *Reconciler) Apply(doc *domain.Document) {
	if doc == nil {
		return
	}
	r.mu.Lock()
	r.snapshot = doc
	terminal := doc.Status.Terminal()
	if terminal {
		r.extracting = false
	}
	cancel := r.cancel
	r.mu.Unlock()

	if terminal && cancel != nil {
		cancel()
	}
}

// Snapshot returns the latest known record, which may be nil before the
// first update arrives.
func (r *Reconciler) Snapshot() *domain.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// IsExtracting reports whether the document is still believed to be
// processing. It stays true after poll exhaustion.
func (r *Reconciler) IsExtracting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.extracting
}

// Stop cancels both channels. Call on unmount or when the subject document
// changes, so no stale callback mutates state for the wrong document.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}
