// Package viewer derives the overlay and selection model that keeps the page
// view and the parsed-content view in sync.
package viewer

import "pdf-extract-viewer/internal/domain"

// RenderableInstance is one grounding prepared for overlay rendering on one
// page. A chunk with N groundings produces N instances; the
// (ChunkID, GroundingIndex) pair stays stable across re-renders.
type RenderableInstance struct {
	ChunkID        string     `json:"chunk_id"`
	GroundingIndex int        `json:"grounding_index"`
	Page           int        `json:"page"`
	Box            domain.Box `json:"box"`
}

// PageOverlays is the per-page overlay model plus the inverse index used for
// scroll-to-chunk.
type PageOverlays struct {
	// Pages holds one instance list per page index; index by page position.
	Pages [][]RenderableInstance `json:"pages"`

	// PrimaryPage maps a chunk id to the first page (in grounding order) it
	// appears on. Chunks with no valid grounding are absent.
	PrimaryPage map[string]int `json:"primary_page"`
}

// MapGroundings turns the flat chunk list into per-page renderable overlays.
// Groundings referencing a page outside [0, pageCount) or carrying a
// malformed box are dropped, never fatal: the viewer must survive bad
// upstream data. When pageCount is 0 but chunks exist, one page surface is
// still allocated so there is something to render onto.
func MapGroundings(pageCount int, chunks []domain.Chunk) *PageOverlays {
	if pageCount < 1 && len(chunks) > 0 {
		pageCount = 1
	}
	if pageCount < 0 {
		pageCount = 0
	}

	pages := make([][]RenderableInstance, pageCount)
	primary := make(map[string]int, len(chunks))

	for _, chunk := range chunks {
		for i, g := range chunk.Groundings {
			if g.Page < 0 || g.Page >= pageCount {
				continue
			}
			if !g.Box.Valid() {
				continue
			}
			pages[g.Page] = append(pages[g.Page], RenderableInstance{
				ChunkID:        chunk.ID,
				GroundingIndex: i,
				Page:           g.Page,
				Box:            g.Box,
			})
			if _, seen := primary[chunk.ID]; !seen {
				primary[chunk.ID] = g.Page
			}
		}
	}

	return &PageOverlays{
		Pages:       pages,
		PrimaryPage: primary,
	}
}

// InstanceCount totals renderable instances across all pages.
func (o *PageOverlays) InstanceCount() int {
	n := 0
	for _, page := range o.Pages {
		n += len(page)
	}
	return n
}
