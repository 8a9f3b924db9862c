// Package extraction wraps the AI backend that turns document bytes into
// markdown plus positioned content chunks.
package extraction

import (
	"context"

	"pdf-extract-viewer/internal/domain"

	"golang.org/x/oauth2/google"
)

// NewClient picks the extraction backend. With a configured project and
// resolvable Google credentials it talks to Vertex AI; otherwise it degrades
// to the placeholder client so uploads are never blocked on a missing
// backend.
func NewClient(config domain.Config, logger domain.Logger) domain.ExtractionClient {
	projectID := config.GetVertexProjectID()
	if projectID == "" {
		logger.Warn("VERTEX_PROJECT_ID not set, using placeholder extraction")
		return NewPlaceholderClient()
	}

	ctx := context.Background()
	if _, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform"); err != nil {
		logger.Warn("No Google credentials available, using placeholder extraction", "error", err)
		return NewPlaceholderClient()
	}

	client, err := NewVertexClient(ctx, projectID, config.GetVertexLocation(), logger)
	if err != nil {
		logger.Error("Failed to create Vertex client, using placeholder extraction", err)
		return NewPlaceholderClient()
	}
	return client
}
