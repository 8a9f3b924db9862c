package viewer

import (
	"testing"

	"pdf-extract-viewer/internal/domain"
)

func box(l, t, r, b float64) domain.Box {
	return domain.Box{Left: l, Top: t, Right: r, Bottom: b}
}

func TestMapGroundings_MultiPageChunk(t *testing.T) {
	chunks := []domain.Chunk{
		{
			ID:   "chunk-1",
			Type: domain.ChunkTypeTable,
			Groundings: []domain.Grounding{
				{Page: 2, Box: box(0.1, 0.1, 0.9, 0.9)},
				{Page: 2, Box: box(0.1, 0.0, 0.9, 0.1)},
				{Page: 5, Box: box(0.1, 0.1, 0.9, 0.5)},
			},
		},
	}

	overlays := MapGroundings(6, chunks)

	if got := overlays.InstanceCount(); got != 3 {
		t.Fatalf("expected 3 instances, got %d", got)
	}
	if len(overlays.Pages[2]) != 2 {
		t.Fatalf("expected 2 instances on page 2, got %d", len(overlays.Pages[2]))
	}
	if len(overlays.Pages[5]) != 1 {
		t.Fatalf("expected 1 instance on page 5, got %d", len(overlays.Pages[5]))
	}
	if primary, ok := overlays.PrimaryPage["chunk-1"]; !ok || primary != 2 {
		t.Fatalf("expected primary page 2, got %d (ok=%v)", primary, ok)
	}
}

func TestMapGroundings_StableInstanceIdentity(t *testing.T) {
	chunks := []domain.Chunk{
		{
			ID: "chunk-1",
			Groundings: []domain.Grounding{
				{Page: 0, Box: box(0, 0, 1, 1)},
				{Page: 1, Box: box(0, 0, 1, 0.5)},
			},
		},
	}

	first := MapGroundings(2, chunks)
	second := MapGroundings(2, chunks)

	for page := range first.Pages {
		if len(first.Pages[page]) != len(second.Pages[page]) {
			t.Fatalf("page %d instance count changed across renders", page)
		}
		for i := range first.Pages[page] {
			a, b := first.Pages[page][i], second.Pages[page][i]
			if a.ChunkID != b.ChunkID || a.GroundingIndex != b.GroundingIndex {
				t.Fatalf("instance identity changed across renders: %+v vs %+v", a, b)
			}
		}
	}
}

func TestMapGroundings_DropsOutOfRangePages(t *testing.T) {
	chunks := []domain.Chunk{
		{
			ID: "chunk-1",
			Groundings: []domain.Grounding{
				{Page: -1, Box: box(0, 0, 1, 1)},
				{Page: 3, Box: box(0, 0, 1, 1)},
				{Page: 1, Box: box(0, 0, 1, 1)},
			},
		},
	}

	overlays := MapGroundings(3, chunks)

	if got := overlays.InstanceCount(); got != 1 {
		t.Fatalf("expected 1 instance, got %d", got)
	}
	if primary := overlays.PrimaryPage["chunk-1"]; primary != 1 {
		t.Fatalf("expected primary page 1, got %d", primary)
	}
}

func TestMapGroundings_DropsMalformedBoxes(t *testing.T) {
	chunks := []domain.Chunk{
		{
			ID: "chunk-1",
			Groundings: []domain.Grounding{
				{Page: 0, Box: box(0.9, 0.1, 0.1, 0.9)}, // left > right
				{Page: 0, Box: box(0.1, 0.9, 0.9, 0.1)}, // top > bottom
				{Page: 0, Box: box(-0.1, 0, 0.5, 0.5)},  // negative
				{Page: 0, Box: box(0.1, 0.1, 1.5, 0.9)}, // out of range
				{Page: 0, Box: box(0.1, 0.1, 0.9, 0.9)},
			},
		},
	}

	overlays := MapGroundings(1, chunks)

	if got := overlays.InstanceCount(); got != 1 {
		t.Fatalf("expected only the well-formed box to survive, got %d instances", got)
	}
}

func TestMapGroundings_UngroundedChunkAbsentFromIndex(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "anchored", Groundings: []domain.Grounding{{Page: 0, Box: box(0, 0, 1, 1)}}},
		{ID: "floating"},
	}

	overlays := MapGroundings(1, chunks)

	if _, ok := overlays.PrimaryPage["floating"]; ok {
		t.Fatalf("chunk without groundings must not appear in the primary page index")
	}
	if _, ok := overlays.PrimaryPage["anchored"]; !ok {
		t.Fatalf("anchored chunk missing from primary page index")
	}
}

func TestMapGroundings_ZeroPageCountWithChunks(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "chunk-1", Groundings: []domain.Grounding{{Page: 0, Box: box(0, 0, 1, 1)}}},
	}

	overlays := MapGroundings(0, chunks)

	if len(overlays.Pages) != 1 {
		t.Fatalf("expected one page surface to be allocated, got %d", len(overlays.Pages))
	}
	if got := overlays.InstanceCount(); got != 1 {
		t.Fatalf("expected 1 instance, got %d", got)
	}
}

func TestMapGroundings_Empty(t *testing.T) {
	overlays := MapGroundings(0, nil)

	if len(overlays.Pages) != 0 {
		t.Fatalf("expected no pages, got %d", len(overlays.Pages))
	}
	if len(overlays.PrimaryPage) != 0 {
		t.Fatalf("expected empty index, got %v", overlays.PrimaryPage)
	}
}
