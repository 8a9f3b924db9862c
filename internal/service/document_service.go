package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"pdf-extract-viewer/internal/domain"
	apperrors "pdf-extract-viewer/pkg/errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// pageUploadWorkers caps concurrent in-flight page image uploads. Handles are
// still recorded in page order regardless of completion order.
const pageUploadWorkers = 4

const mimePDF = "application/pdf"

var allowedMimeTypes = map[string]string{
	mimePDF:      ".pdf",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Publisher delivers full document records to push subscribers. Satisfied by
// reconcile.Hub.
type Publisher interface {
	Publish(doc *domain.Document)
}

// DocumentService is the upload orchestrator: it coordinates blob upload,
// record creation, rasterization, per-page image upload, and background
// dispatch of extraction.
type DocumentService struct {
	repo       domain.DocumentRepository
	blobs      domain.BlobStore
	rasterizer domain.PageRasterizer
	extractor  domain.ExtractionClient
	publisher  Publisher
	tasks      domain.TaskTracker
	config     domain.Config
	logger     domain.Logger
}

func NewDocumentService(
	repo domain.DocumentRepository,
	blobs domain.BlobStore,
	rasterizer domain.PageRasterizer,
	extractor domain.ExtractionClient,
	publisher Publisher,
	tasks domain.TaskTracker,
	config domain.Config,
	logger domain.Logger,
) *DocumentService {
	return &DocumentService{
		repo:       repo,
		blobs:      blobs,
		rasterizer: rasterizer,
		extractor:  extractor,
		publisher:  publisher,
		tasks:      tasks,
		config:     config,
		logger:     logger,
	}
}

// Upload runs the full ingest pipeline for one file. It returns as soon as
// the preview is usable; extraction resolves later through the document
// record and the push hub.
func (s *DocumentService) Upload(
	ctx context.Context,
	ownerID, filename, mimeType string,
	data []byte,
	token string,
) (*domain.UploadResult, error) {
	// All validation happens before any network call.
	ext, ok := allowedMimeTypes[mimeType]
	if !ok {
		return nil, apperrors.NewValidationError(
			"unsupported file type", "allowed: PDF, JPEG, PNG")
	}
	if int64(len(data)) > s.config.GetMaxFileSize() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("file too large, maximum is %d bytes", s.config.GetMaxFileSize()))
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("file is empty")
	}

	pageCount := 1
	if mimeType == mimePDF {
		n, err := s.rasterizer.PageCount(data)
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable PDF", err.Error())
		}
		if n > s.config.GetMaxPageCount() {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("PDF has %d pages, maximum is %d", n, s.config.GetMaxPageCount()))
		}
		pageCount = n
	}

	docID := uuid.New().String()
	filePath := fmt.Sprintf("%s/%s/source%s", ownerID, docID, ext)

	// Step 1: raw bytes to the blob store. Failure here aborts the whole
	// operation; no partial document is left behind.
	if _, err := s.blobs.Upload(ctx, filePath, data, mimeType, token); err != nil {
		return nil, err
	}

	// Step 2: document record in processing.
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        docID,
		OwnerID:   ownerID,
		Title:     titleFromFilename(filename, docID),
		MimeType:  mimeType,
		FileSize:  int64(len(data)),
		Status:    domain.StatusProcessing,
		PageCount: pageCount,
		FilePath:  filePath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, doc, token); err != nil {
		return nil, err
	}

	// Step 3: page images, so the viewer can show pages before extraction
	// finishes. Any failure here degrades to a preview-less document.
	s.attachPageImages(ctx, doc, data, token)

	// Step 4: extraction is fire-and-forget relative to this call. Its
	// resolution lands on the document record and the push hub.
	s.tasks.Go(func() {
		s.runExtraction(context.Background(), docID, ownerID, data, mimeType, pageCount, token)
	})

	return &domain.UploadResult{
		DocumentID: docID,
		Status:     domain.StatusProcessing,
		PageCount:  pageCount,
	}, nil
}

// attachPageImages rasterizes (for PDFs) and uploads per-page preview images,
// then records the handle list in page order. Raster inputs reuse the raw
// object as their single page.
func (s *DocumentService) attachPageImages(ctx context.Context, doc *domain.Document, data []byte, token string) {
	if doc.MimeType != mimePDF {
		url, err := s.blobs.Upload(ctx,
			fmt.Sprintf("%s/%s/pages/page_000%s", doc.OwnerID, doc.ID, allowedMimeTypes[doc.MimeType]),
			data, doc.MimeType, token)
		if err != nil {
			s.logger.Warn("Page image upload failed, continuing without preview",
				"doc_id", doc.ID, "error", err)
			return
		}
		if err := s.repo.SetPageImages(ctx, doc.ID, doc.OwnerID, []string{url}, 1, token); err != nil {
			s.logger.Warn("Failed to record page images", "doc_id", doc.ID, "error", err)
		}
		return
	}

	pages, err := s.rasterizer.RasterizePDF(ctx, data)
	if err != nil {
		s.logger.Warn("Rasterization failed, continuing without page images",
			"doc_id", doc.ID, "error", err)
		return
	}

	// Uploads may overlap in flight, but handles land in an indexed slice so
	// the final record lists them in page order.
	urls := make([]string, len(pages))
	sem := make(chan struct{}, pageUploadWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}
			url, err := s.blobs.Upload(gctx,
				fmt.Sprintf("%s/%s/pages/page_%03d.png", doc.OwnerID, doc.ID, i),
				page, "image/png", token)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("Page image upload failed, continuing without page images",
			"doc_id", doc.ID, "error", err)
		return
	}

	if err := s.repo.SetPageImages(ctx, doc.ID, doc.OwnerID, urls, len(urls), token); err != nil {
		s.logger.Warn("Failed to record page images", "doc_id", doc.ID, "error", err)
		return
	}
	s.logger.Info("Page images attached", "doc_id", doc.ID, "pages", len(urls))
}

// runExtraction resolves the detached extraction call onto the document
// record, then publishes the full record to push subscribers.
func (s *DocumentService) runExtraction(ctx context.Context, docID, ownerID string, data []byte, mimeType string, pageCount int, token string) {
	result, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		// The backend's message is surfaced verbatim to the viewer.
		if failErr := s.repo.Fail(ctx, docID, ownerID, err.Error(), token); failErr != nil {
			s.logger.Error("Failed to record extraction failure", failErr, "doc_id", docID)
		}
		s.logger.Warn("Extraction failed", "doc_id", docID, "error", err)
		s.publishRecord(ctx, docID, ownerID, token)
		return
	}

	if result == nil {
		result = &domain.ExtractionResult{}
	}
	if result.Chunks == nil {
		result.Chunks = []domain.Chunk{}
	}
	if err := s.repo.Complete(ctx, docID, ownerID, result.Markdown, result.Chunks, pageCount, token); err != nil {
		s.logger.Error("Failed to record extraction completion", err, "doc_id", docID)
		return
	}
	s.logger.Info("Extraction completed", "doc_id", docID, "chunks", len(result.Chunks))
	s.publishRecord(ctx, docID, ownerID, token)
}

func (s *DocumentService) publishRecord(ctx context.Context, docID, ownerID, token string) {
	if s.publisher == nil {
		return
	}
	doc, err := s.repo.GetByID(ctx, docID, ownerID, token)
	if err != nil {
		s.logger.Warn("Failed to load record for push delivery", "doc_id", docID, "error", err)
		return
	}
	s.publisher.Publish(doc)
}

// GetDocument returns the full record for one document.
func (s *DocumentService) GetDocument(ctx context.Context, id, ownerID, token string) (*domain.Document, error) {
	return s.repo.GetByID(ctx, id, ownerID, token)
}

// GetDocuments lists the owner's documents.
func (s *DocumentService) GetDocuments(ctx context.Context, ownerID, token string) ([]*domain.Document, error) {
	return s.repo.GetByOwnerID(ctx, ownerID, token)
}

// Probe answers the lightweight "has content arrived yet" check.
func (s *DocumentService) Probe(ctx context.Context, id, ownerID, token string) (bool, error) {
	return s.repo.Probe(ctx, id, ownerID, token)
}

// Retry re-enters processing from a terminal state and re-dispatches
// extraction from the stored raw bytes. Page images and page count survive.
func (s *DocumentService) Retry(ctx context.Context, id, ownerID, token string) (*domain.UploadResult, error) {
	doc, err := s.repo.GetByID(ctx, id, ownerID, token)
	if err != nil {
		return nil, err
	}
	if !doc.Status.Terminal() {
		return nil, apperrors.NewValidationError("document is still processing")
	}

	data, err := s.blobs.Fetch(ctx, doc.FilePath, token)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkProcessing(ctx, id, ownerID, token); err != nil {
		return nil, err
	}

	mimeType := doc.MimeType
	pageCount := doc.PageCount
	s.tasks.Go(func() {
		s.runExtraction(context.Background(), id, ownerID, data, mimeType, pageCount, token)
	})

	return &domain.UploadResult{
		DocumentID: id,
		Status:     domain.StatusProcessing,
		PageCount:  pageCount,
	}, nil
}

func titleFromFilename(filename, fallback string) string {
	name := strings.TrimSpace(filepath.Base(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fallback
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
