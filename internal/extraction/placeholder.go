package extraction

import (
	"context"

	"pdf-extract-viewer/internal/domain"
)

// PlaceholderMarker opens the markdown of every placeholder completion so
// the viewer can always tell degraded output from genuine extraction.
const PlaceholderMarker = "> **Extraction backend not configured.**"

const placeholderBody = PlaceholderMarker + `
> This document was stored and its pages rendered, but no AI extraction
> backend was available. Configure VERTEX_PROJECT_ID and Google credentials
> to enable content extraction, then retry the document.`

// PlaceholderClient completes documents with clearly-labeled stand-in
// content instead of blocking the user when the backend is unreachable or
// unconfigured.
type PlaceholderClient struct{}

func NewPlaceholderClient() *PlaceholderClient {
	return &PlaceholderClient{}
}

func (c *PlaceholderClient) Extract(ctx context.Context, data []byte, mimeType string) (*domain.ExtractionResult, error) {
	return &domain.ExtractionResult{
		Markdown: placeholderBody,
		Chunks: []domain.Chunk{
			{
				ID:      "placeholder-1",
				Content: "Extraction backend not configured. Document content is unavailable.",
				Type:    domain.ChunkTypeText,
			},
		},
	}, nil
}
