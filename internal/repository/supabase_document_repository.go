package repository

import (
	"context"
	"encoding/json"
	"time"

	"pdf-extract-viewer/internal/domain"
	apperrors "pdf-extract-viewer/pkg/errors"
)

// SupabaseDocumentRepository implements the domain.DocumentRepository
// interface on the Supabase postgrest API.
//
// Every mutation filters on both id and owner_id, so a record owned by a
// different user is indistinguishable from a missing one.
type SupabaseDocumentRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseDocumentRepository creates a new Supabase document repository
func NewSupabaseDocumentRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.DocumentRepository {
	return &SupabaseDocumentRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// documentRow mirrors the documents table. chunks and page_images are JSONB.
type documentRow struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Title        string          `json:"title"`
	MimeType     string          `json:"mime_type"`
	FileSize     int64           `json:"file_size"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Markdown     *string         `json:"markdown"`
	Chunks       json.RawMessage `json:"chunks"`
	PageImages   json.RawMessage `json:"page_images"`
	PageCount    int             `json:"page_count"`
	FilePath     string          `json:"file_path"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (r *SupabaseDocumentRepository) rowToDocument(row *documentRow) *domain.Document {
	doc := &domain.Document{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		Title:        row.Title,
		MimeType:     row.MimeType,
		FileSize:     row.FileSize,
		Status:       domain.DocumentStatus(row.Status),
		ErrorMessage: row.ErrorMessage,
		Markdown:     row.Markdown,
		PageCount:    row.PageCount,
		FilePath:     row.FilePath,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.Chunks) > 0 {
		if err := json.Unmarshal(row.Chunks, &doc.Chunks); err != nil {
			r.logger.Warn("Failed to decode chunks column, leaving empty", "doc_id", row.ID, "error", err)
		}
	}
	if len(row.PageImages) > 0 {
		if err := json.Unmarshal(row.PageImages, &doc.PageImages); err != nil {
			r.logger.Warn("Failed to decode page_images column, leaving empty", "doc_id", row.ID, "error", err)
		}
	}
	return doc
}

// Create inserts a new document record.
func (r *SupabaseDocumentRepository) Create(ctx context.Context, doc *domain.Document, token string) error {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return apperrors.NewStorageError("failed to get client with token", err)
	}

	chunksJSON, err := json.Marshal(doc.Chunks)
	if err != nil {
		chunksJSON = []byte("[]")
	}
	pagesJSON, err := json.Marshal(doc.PageImages)
	if err != nil {
		pagesJSON = []byte("[]")
	}

	data := map[string]interface{}{
		"id":            doc.ID,
		"owner_id":      doc.OwnerID,
		"title":         doc.Title,
		"mime_type":     doc.MimeType,
		"file_size":     doc.FileSize,
		"status":        string(doc.Status),
		"error_message": doc.ErrorMessage,
		"markdown":      doc.Markdown,
		"chunks":        json.RawMessage(chunksJSON),
		"page_images":   json.RawMessage(pagesJSON),
		"page_count":    doc.PageCount,
		"file_path":     doc.FilePath,
		"created_at":    doc.CreatedAt,
		"updated_at":    doc.UpdatedAt,
	}

	_, _, err = client.From("documents").Insert(data, false, "", "", "").Execute()
	if err != nil {
		r.logger.Error("Failed to insert document", err, "doc_id", doc.ID)
		return apperrors.NewStorageError("failed to create document", err)
	}

	r.logger.Info("Document created", "id", doc.ID, "owner_id", doc.OwnerID, "status", doc.Status)
	return nil
}

// GetByID fetches a document owned by ownerID.
func (r *SupabaseDocumentRepository) GetByID(ctx context.Context, id, ownerID, token string) (*domain.Document, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to get client with token", err)
	}

	resp, _, err := client.From("documents").
		Select("*", "", false).
		Eq("id", id).
		Eq("owner_id", ownerID).
		Execute()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to fetch document", err)
	}

	var rows []documentRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, apperrors.NewStorageError("failed to decode document", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError("document not found")
	}
	return r.rowToDocument(&rows[0]), nil
}

// GetByOwnerID lists all documents owned by ownerID.
func (r *SupabaseDocumentRepository) GetByOwnerID(ctx context.Context, ownerID, token string) ([]*domain.Document, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to get client with token", err)
	}

	resp, _, err := client.From("documents").
		Select("*", "", false).
		Eq("owner_id", ownerID).
		Execute()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list documents", err)
	}

	var rows []documentRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, apperrors.NewStorageError("failed to decode documents", err)
	}

	docs := make([]*domain.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, r.rowToDocument(&rows[i]))
	}
	return docs, nil
}

// SetPageImages replaces the page image list wholesale.
func (r *SupabaseDocumentRepository) SetPageImages(ctx context.Context, id, ownerID string, pageImages []string, pageCount int, token string) error {
	pagesJSON, err := json.Marshal(pageImages)
	if err != nil {
		return apperrors.NewStorageError("failed to encode page images", err)
	}
	return r.update(id, ownerID, token, map[string]interface{}{
		"page_images": json.RawMessage(pagesJSON),
		"page_count":  pageCount,
		"updated_at":  time.Now().UTC(),
	}, "")
}

// Complete transitions processing -> completed.
func (r *SupabaseDocumentRepository) Complete(ctx context.Context, id, ownerID, markdown string, chunks []domain.Chunk, pageCount int, token string) error {
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	chunksJSON, err := json.Marshal(chunks)
	if err != nil {
		return apperrors.NewStorageError("failed to encode chunks", err)
	}
	data := map[string]interface{}{
		"status":        string(domain.StatusCompleted),
		"markdown":      markdown,
		"chunks":        json.RawMessage(chunksJSON),
		"error_message": "",
		"updated_at":    time.Now().UTC(),
	}
	if pageCount > 0 {
		data["page_count"] = pageCount
	}
	// Status filter keeps terminal records terminal: only one extraction is
	// dispatched per document, but a stale completion must not clobber a
	// record an external retry already moved on.
	return r.update(id, ownerID, token, data, string(domain.StatusProcessing))
}

// Fail transitions processing -> failed, leaving prior partial fields intact.
func (r *SupabaseDocumentRepository) Fail(ctx context.Context, id, ownerID, message, token string) error {
	return r.update(id, ownerID, token, map[string]interface{}{
		"status":        string(domain.StatusFailed),
		"error_message": message,
		"updated_at":    time.Now().UTC(),
	}, string(domain.StatusProcessing))
}

// MarkProcessing re-enters processing from a terminal state. page_images and
// page_count are untouched so recovery keeps partial progress.
func (r *SupabaseDocumentRepository) MarkProcessing(ctx context.Context, id, ownerID, token string) error {
	return r.update(id, ownerID, token, map[string]interface{}{
		"status":        string(domain.StatusProcessing),
		"error_message": "",
		"updated_at":    time.Now().UTC(),
	}, "")
}

// Probe answers the lightweight "has content arrived yet" check without
// pulling markdown, chunks or page images over the wire.
func (r *SupabaseDocumentRepository) Probe(ctx context.Context, id, ownerID, token string) (bool, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return false, apperrors.NewStorageError("failed to get client with token", err)
	}

	resp, _, err := client.From("documents").
		Select("status", "", false).
		Eq("id", id).
		Eq("owner_id", ownerID).
		Execute()
	if err != nil {
		return false, apperrors.NewStorageError("failed to probe document", err)
	}

	var rows []struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp, &rows); err != nil {
		return false, apperrors.NewStorageError("failed to decode probe response", err)
	}
	if len(rows) == 0 {
		return false, apperrors.NewNotFoundError("document not found")
	}
	return domain.DocumentStatus(rows[0].Status).Terminal(), nil
}

// update applies a guarded partial update. statusGuard, when non-empty,
// restricts the update to rows currently in that status.
func (r *SupabaseDocumentRepository) update(id, ownerID, token string, data map[string]interface{}, statusGuard string) error {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return apperrors.NewStorageError("failed to get client with token", err)
	}

	q := client.From("documents").
		Update(data, "", "exact").
		Eq("id", id).
		Eq("owner_id", ownerID)
	if statusGuard != "" {
		q = q.Eq("status", statusGuard)
	}

	_, count, err := q.Execute()
	if err != nil {
		r.logger.Error("Failed to update document", err, "doc_id", id)
		return apperrors.NewStorageError("failed to update document", err)
	}
	if count == 0 {
		return apperrors.NewNotFoundError("document not found")
	}
	return nil
}
