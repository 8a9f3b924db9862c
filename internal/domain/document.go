package domain

import (
	"context"
	"time"
)

// DocumentStatus is the lifecycle state of a document.
type DocumentStatus string

const (
	StatusUploading  DocumentStatus = "uploading"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether no further transitions are expected out of s
// (short of an explicit external retry).
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Document represents one processed upload owned by a user.
//
// status == completed implies Markdown and Chunks are present (possibly
// empty); status == failed implies ErrorMessage is present. PageImages, once
// populated, is only ever replaced wholesale, never shrunk.
type Document struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`

	Title    string `json:"title"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`

	Status       DocumentStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`

	Markdown *string `json:"markdown,omitempty"`
	Chunks   []Chunk `json:"chunks,omitempty"`

	// PageImages holds one fetchable URL per rasterized page, in page order.
	// Consumers index by array position.
	PageImages []string `json:"page_images,omitempty"`
	PageCount  int      `json:"page_count"`

	FilePath string `json:"file_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChunkType tags the semantic kind of an extracted chunk.
type ChunkType string

const (
	ChunkTypeText   ChunkType = "text"
	ChunkTypeTable  ChunkType = "table"
	ChunkTypeForm   ChunkType = "form"
	ChunkTypeTitle  ChunkType = "title"
	ChunkTypeFigure ChunkType = "figure"
)

// Chunk is one semantic unit of extracted content. IDs are unique within a
// document and stable across re-renders; a chunk with zero groundings is
// valid unanchored content.
type Chunk struct {
	ID         string      `json:"chunk_id"`
	Content    string      `json:"content"`
	Type       ChunkType   `json:"chunk_type"`
	Groundings []Grounding `json:"groundings,omitempty"`

	// Extra carries unrecognized upstream fields through untouched.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Grounding anchors a chunk to a rectangular region on one page. Page is
// zero-based; the box is expressed as fractions of page width/height.
type Grounding struct {
	Page int `json:"page"`
	Box  Box `json:"box"`
}

// Box is a fractional bounding box. A well-formed box satisfies
// 0 <= Left <= Right <= 1 and 0 <= Top <= Bottom <= 1.
type Box struct {
	Left   float64 `json:"l"`
	Top    float64 `json:"t"`
	Right  float64 `json:"r"`
	Bottom float64 `json:"b"`
}

// Valid reports whether the box is well-formed.
func (b Box) Valid() bool {
	return b.Left >= 0 && b.Left <= b.Right && b.Right <= 1 &&
		b.Top >= 0 && b.Top <= b.Bottom && b.Bottom <= 1
}

// ExtractionResult is what the extraction backend produces for a document.
type ExtractionResult struct {
	Markdown string  `json:"markdown"`
	Chunks   []Chunk `json:"chunks"`
}

// UploadResult is returned to the caller as soon as the preview is usable;
// extraction continues in the background.
type UploadResult struct {
	DocumentID string         `json:"document_id"`
	Status     DocumentStatus `json:"status"`
	PageCount  int            `json:"page_count,omitempty"`
}

// DocumentRepository defines persistence operations for document records.
// Every operation takes the owner id; a record owned by someone else behaves
// exactly like a missing record.
type DocumentRepository interface {
	Create(ctx context.Context, doc *Document, token string) error
	GetByID(ctx context.Context, id, ownerID, token string) (*Document, error)
	GetByOwnerID(ctx context.Context, ownerID, token string) ([]*Document, error)

	// SetPageImages replaces the page image list wholesale and records the
	// page count. Called once the per-page uploads finish, before extraction.
	SetPageImages(ctx context.Context, id, ownerID string, pageImages []string, pageCount int, token string) error

	// Complete transitions processing -> completed, writing markdown, chunks
	// and page count.
	Complete(ctx context.Context, id, ownerID, markdown string, chunks []Chunk, pageCount int, token string) error

	// Fail transitions processing -> failed, writing the error message and
	// leaving prior partial fields intact.
	Fail(ctx context.Context, id, ownerID, message, token string) error

	// MarkProcessing re-enters processing from a terminal state (external
	// retry). Preserves page images and page count, clears the error message.
	MarkProcessing(ctx context.Context, id, ownerID, token string) error

	// Probe is the lightweight "has content arrived yet" check used by the
	// polling fallback while a document is still processing.
	Probe(ctx context.Context, id, ownerID, token string) (bool, error)
}

// DocumentService defines the use-case operations exposed over HTTP.
type DocumentService interface {
	Upload(ctx context.Context, ownerID, filename, mimeType string, data []byte, token string) (*UploadResult, error)
	GetDocument(ctx context.Context, id, ownerID, token string) (*Document, error)
	GetDocuments(ctx context.Context, ownerID, token string) ([]*Document, error)
	Probe(ctx context.Context, id, ownerID, token string) (bool, error)
	Retry(ctx context.Context, id, ownerID, token string) (*UploadResult, error)
}
