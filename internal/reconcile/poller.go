package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"pdf-extract-viewer/internal/domain"
)

// ErrPollExhausted is returned when the attempt cap is reached without the
// document completing. It is not a failure: the UI shows a "still
// processing, check back later" state.
var ErrPollExhausted = errors.New("polling attempts exhausted")

// PollState is the poller's lifecycle. Cancellation is a single state
// transition, not timer-handle bookkeeping.
type PollState int

const (
	PollIdle PollState = iota
	PollScheduled
	PollStopped
)

// DefaultMaxAttempts caps polling at roughly two minutes.
const DefaultMaxAttempts = 60

// DefaultInterval escalates the poll interval as a document stays in
// processing: 2s for the first 10 attempts, 3s for the next 20, 5s after.
func DefaultInterval(attempt int) time.Duration {
	switch {
	case attempt <= 10:
		return 2 * time.Second
	case attempt <= 30:
		return 3 * time.Second
	default:
		return 5 * time.Second
	}
}

// Poller is the bounded fallback when push delivery is unavailable or slow.
// Each attempt runs the cheap probe first and fetches the full record only
// once the probe reports content has arrived.
type Poller struct {
	Probe func(ctx context.Context) (bool, error)
	Fetch func(ctx context.Context) (*domain.Document, error)

	// Alive is checked before every scheduled attempt so a push-driven
	// completion stops the loop promptly. Nil means always alive.
	Alive func() bool

	// Sleep is injectable so tests run the schedule without wall-clock
	// waits. Nil means a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	MaxAttempts int
	Interval    func(attempt int) time.Duration

	Logger domain.Logger

	mu    sync.Mutex
	state PollState
}

// State reports the poller's current lifecycle state.
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) setState(s PollState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run polls until the document reports content, the context is cancelled, or
// the attempt cap is hit (ErrPollExhausted). Probe and fetch errors are
// treated as transient; they consume an attempt and the loop continues.
func (p *Poller) Run(ctx context.Context) (*domain.Document, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	interval := p.Interval
	if interval == nil {
		interval = DefaultInterval
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	defer p.setState(PollStopped)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if p.Alive != nil && !p.Alive() {
			return nil, context.Canceled
		}

		p.setState(PollScheduled)
		if err := sleep(ctx, interval(attempt)); err != nil {
			return nil, err
		}
		p.setState(PollIdle)

		if p.Alive != nil && !p.Alive() {
			return nil, context.Canceled
		}

		ready, err := p.Probe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if p.Logger != nil {
				p.Logger.Warn("Status probe failed, will retry", "attempt", attempt, "error", err)
			}
			continue
		}
		if !ready {
			continue
		}

		doc, err := p.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if p.Logger != nil {
				p.Logger.Warn("Record fetch failed after probe, will retry", "attempt", attempt, "error", err)
			}
			continue
		}
		return doc, nil
	}

	return nil, ErrPollExhausted
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
