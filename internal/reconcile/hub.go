// Package reconcile keeps a local view of a document's lifecycle state
// current with minimal latency: push subscriptions first, bounded polling as
// the fallback.
package reconcile

import (
	"sync"

	"pdf-extract-viewer/internal/domain"
)

// Hub is the in-process push channel. The extraction completion handler
// publishes the full current record; every subscriber for that document id
// receives it. Each delivery is a full snapshot, so replacing local state is
// idempotent and needs no diffing.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan *domain.Document
	next int
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int]chan *domain.Document),
	}
}

// Subscribe registers for pushes about one document. The returned cancel
// func must be called when the consumer goes away; the channel is closed by
// it.
func (h *Hub) Subscribe(documentID string) (<-chan *domain.Document, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan *domain.Document, 1)
	if h.subs[documentID] == nil {
		h.subs[documentID] = make(map[int]chan *domain.Document)
	}
	id := h.next
	h.next++
	h.subs[documentID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[documentID][id]; ok {
			delete(h.subs[documentID], id)
			if len(h.subs[documentID]) == 0 {
				delete(h.subs, documentID)
			}
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the record to all subscribers for its document id. A slow
// subscriber keeps only the latest snapshot; intermediate ones are dropped,
// which is safe because every push carries the full record.
func (h *Hub) Publish(doc *domain.Document) {
	if doc == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[doc.ID] {
		select {
		case ch <- doc:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- doc:
			default:
			}
		}
	}
}
