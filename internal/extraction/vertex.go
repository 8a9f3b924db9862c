package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pdf-extract-viewer/internal/domain"
	apperrors "pdf-extract-viewer/pkg/errors"

	"cloud.google.com/go/vertexai/genai"
)

const extractionModel = "gemini-2.0-flash-001"

const extractionPrompt = `Extract the content of the attached document.
Respond with a single JSON object, no surrounding prose:
{
  "markdown": "<the full document content as markdown>",
  "chunks": [
    {
      "chunk_id": "<stable id, unique within the document>",
      "content": "<the chunk's text>",
      "chunk_type": "text|table|form|title|figure",
      "groundings": [
        {"page": <zero-based page index>, "box": {"l": 0.0, "t": 0.0, "r": 1.0, "b": 1.0}}
      ]
    }
  ]
}
Box coordinates are fractions of page width and height in [0,1].
A chunk that cannot be located on a page may have an empty groundings list.`

// VertexClient implements domain.ExtractionClient on Vertex AI Gemini.
type VertexClient struct {
	genaiClient *genai.Client
	logger      domain.Logger
}

func NewVertexClient(ctx context.Context, projectID, location string, logger domain.Logger) (*VertexClient, error) {
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex ai client: %w", err)
	}
	return &VertexClient{
		genaiClient: client,
		logger:      logger,
	}, nil
}

// Extract sends the document to Gemini and decodes the structured response.
// Transport and API failures come back as extraction errors whose message is
// recorded on the document verbatim. A response the model produced but that
// is missing expected fields is not an error: the document completes with
// whatever was present, possibly nothing.
func (c *VertexClient) Extract(ctx context.Context, data []byte, mimeType string) (*domain.ExtractionResult, error) {
	model := c.genaiClient.GenerativeModel(extractionModel)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text(extractionPrompt),
	)
	if err != nil {
		return nil, apperrors.NewExtractionError(err.Error(), err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		c.logger.Warn("Extraction returned no candidates, completing with empty content")
		return &domain.ExtractionResult{Chunks: []domain.Chunk{}}, nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	result := decodeResult(sb.String(), c.logger)
	return result, nil
}

// decodeResult parses the model output leniently: fenced JSON is unfenced,
// and anything undecodable yields an empty result rather than a failure.
func decodeResult(text string, logger domain.Logger) *domain.ExtractionResult {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var wire struct {
		Markdown string            `json:"markdown"`
		Chunks   []json.RawMessage `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		logger.Warn("Extraction response was not valid JSON, completing with empty content", "error", err)
		return &domain.ExtractionResult{Chunks: []domain.Chunk{}}
	}

	chunks := make([]domain.Chunk, 0, len(wire.Chunks))
	for i, raw := range wire.Chunks {
		chunk, ok := decodeChunk(raw, i)
		if !ok {
			continue
		}
		chunks = append(chunks, chunk)
	}

	return &domain.ExtractionResult{
		Markdown: wire.Markdown,
		Chunks:   chunks,
	}
}

// chunk core schema; everything else rides along in Extra.
var chunkCoreFields = map[string]bool{
	"chunk_id":   true,
	"content":    true,
	"chunk_type": true,
	"groundings": true,
}

func decodeChunk(raw json.RawMessage, index int) (domain.Chunk, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Chunk{}, false
	}

	var chunk domain.Chunk
	if err := json.Unmarshal(raw, &struct {
		ID         *string             `json:"chunk_id"`
		Content    *string             `json:"content"`
		Type       *domain.ChunkType   `json:"chunk_type"`
		Groundings *[]domain.Grounding `json:"groundings"`
	}{&chunk.ID, &chunk.Content, &chunk.Type, &chunk.Groundings}); err != nil {
		return domain.Chunk{}, false
	}

	if chunk.ID == "" {
		chunk.ID = fmt.Sprintf("chunk-%d", index+1)
	}
	if chunk.Type == "" {
		chunk.Type = domain.ChunkTypeText
	}

	for key, value := range fields {
		if chunkCoreFields[key] {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(value, &v); err != nil {
			continue
		}
		if chunk.Extra == nil {
			chunk.Extra = make(map[string]interface{})
		}
		chunk.Extra[key] = v
	}

	return chunk, true
}
