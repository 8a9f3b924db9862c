package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pdf-extract-viewer/internal/domain"
)

type mockReconcileLogger struct{}

func (l *mockReconcileLogger) Info(msg string, fields ...interface{})             {}
func (l *mockReconcileLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *mockReconcileLogger) Debug(msg string, fields ...interface{})            {}
func (l *mockReconcileLogger) Warn(msg string, fields ...interface{})             {}

// instantSleep runs the schedule without wall-clock waits.
func instantSleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func TestDefaultInterval_Escalates(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{10, 2 * time.Second},
		{11, 3 * time.Second},
		{30, 3 * time.Second},
		{31, 5 * time.Second},
		{60, 5 * time.Second},
	}
	for _, tc := range cases {
		if got := DefaultInterval(tc.attempt); got != tc.want {
			t.Errorf("DefaultInterval(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestPoller_FetchesOnceProbeReportsContent(t *testing.T) {
	var probes int32
	want := &domain.Document{ID: "doc-1", Status: domain.StatusCompleted}

	p := &Poller{
		Probe: func(ctx context.Context) (bool, error) {
			return atomic.AddInt32(&probes, 1) >= 3, nil
		},
		Fetch: func(ctx context.Context) (*domain.Document, error) {
			return want, nil
		},
		Sleep: instantSleep,
	}

	doc, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != want {
		t.Fatalf("expected the fetched record")
	}
	if got := atomic.LoadInt32(&probes); got != 3 {
		t.Fatalf("expected 3 probes, got %d", got)
	}
	if p.State() != PollStopped {
		t.Fatalf("expected stopped state, got %d", p.State())
	}
}

func TestPoller_ExhaustsAttemptCap(t *testing.T) {
	var probes int32

	p := &Poller{
		Probe: func(ctx context.Context) (bool, error) {
			atomic.AddInt32(&probes, 1)
			return false, nil
		},
		Fetch: func(ctx context.Context) (*domain.Document, error) {
			t.Fatalf("fetch must not be called when probe never reports content")
			return nil, nil
		},
		Sleep:  instantSleep,
		Logger: &mockReconcileLogger{},
	}

	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrPollExhausted) {
		t.Fatalf("expected ErrPollExhausted, got %v", err)
	}
	if got := atomic.LoadInt32(&probes); got != DefaultMaxAttempts {
		t.Fatalf("expected %d probes, got %d", DefaultMaxAttempts, got)
	}
	if p.State() != PollStopped {
		t.Fatalf("expected stopped state, got %d", p.State())
	}
}

func TestPoller_TransientErrorsConsumeAttempts(t *testing.T) {
	var probes int32
	want := &domain.Document{ID: "doc-1", Status: domain.StatusCompleted}

	p := &Poller{
		Probe: func(ctx context.Context) (bool, error) {
			switch atomic.AddInt32(&probes, 1) {
			case 1:
				return false, errors.New("transient network blip")
			case 2:
				return true, nil
			default:
				return true, nil
			}
		},
		Fetch: func(ctx context.Context) (*domain.Document, error) {
			if atomic.LoadInt32(&probes) == 2 {
				return nil, errors.New("fetch blip")
			}
			return want, nil
		},
		Sleep:  instantSleep,
		Logger: &mockReconcileLogger{},
	}

	doc, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != want {
		t.Fatalf("expected record after transient errors")
	}
	if got := atomic.LoadInt32(&probes); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestPoller_AliveStopsBeforeNextAttempt(t *testing.T) {
	var probes int32

	p := &Poller{
		Probe: func(ctx context.Context) (bool, error) {
			atomic.AddInt32(&probes, 1)
			return false, nil
		},
		Fetch: func(ctx context.Context) (*domain.Document, error) {
			return nil, nil
		},
		Alive: func() bool {
			return atomic.LoadInt32(&probes) < 2
		},
		Sleep: instantSleep,
	}

	_, err := p.Run(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled once no longer alive, got %v", err)
	}
	if got := atomic.LoadInt32(&probes); got != 2 {
		t.Fatalf("expected polling to stop after 2 probes, got %d", got)
	}
}

func TestPoller_ContextCancelStopsSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Poller{
		Probe: func(ctx context.Context) (bool, error) { return false, nil },
		Fetch: func(ctx context.Context) (*domain.Document, error) { return nil, nil },
	}

	_, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
