package viewer

import "sync"

// Selection tracks which chunks are active and multi-selected. It is shared
// by the page-overlay view and the text-panel view, keyed purely by chunk id
// since one chunk can appear on multiple pages.
type Selection struct {
	mu            sync.Mutex
	activeChunkID string
	multiSelected []string
}

func NewSelection() *Selection {
	return &Selection{}
}

// Click applies one pointer interaction. The clicked chunk always becomes
// active. Without the multi modifier the selection is replaced; with it the
// chunk toggles, and additions append at the end because export consumers
// rely on click order, not document order.
func (s *Selection) Click(chunkID string, multiModifier bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeChunkID = chunkID

	if !multiModifier {
		s.multiSelected = []string{chunkID}
		return
	}

	for i, id := range s.multiSelected {
		if id == chunkID {
			s.multiSelected = append(s.multiSelected[:i], s.multiSelected[i+1:]...)
			return
		}
	}
	s.multiSelected = append(s.multiSelected, chunkID)
}

// Clear resets both fields.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeChunkID = ""
	s.multiSelected = nil
}

// ActiveChunkID returns the most recently interacted-with chunk, or "".
func (s *Selection) ActiveChunkID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeChunkID
}

// MultiSelected returns the selected chunk ids in click order.
func (s *Selection) MultiSelected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.multiSelected))
	copy(out, s.multiSelected)
	return out
}

// IsSelected reports whether the chunk is in the multi-selection.
func (s *Selection) IsSelected(chunkID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.multiSelected {
		if id == chunkID {
			return true
		}
	}
	return false
}
