package service

import "sync"

// Tracker runs detached background work while keeping it awaitable. The
// extraction dispatch is fire-and-forget relative to the HTTP response, but
// tests (and graceful shutdown) need a way to wait for tracked tasks instead
// of sleeping.
type Tracker struct {
	wg sync.WaitGroup
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Go runs fn on its own goroutine.
func (t *Tracker) Go(fn func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

// Wait blocks until every task started so far has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
