// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"pdf-extract-viewer/internal/domain"
	"pdf-extract-viewer/internal/reconcile"

	"github.com/gorilla/mux"
)

// maxMultipartMemory bounds how much of the upload is buffered in memory
// while parsing the form; the rest spills to temp files.
const maxMultipartMemory = 32 << 20

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	documentService domain.DocumentService
	hub             *reconcile.Hub
	config          domain.Config
	logger          domain.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService domain.DocumentService, hub *reconcile.Hub, config domain.Config, logger domain.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		hub:             hub,
		config:          config,
		logger:          logger,
	}
}

// UploadDocument accepts one file and returns as soon as the preview is
// usable; extraction continues in the background.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	// Reject oversize uploads before buffering the whole payload.
	if header.Size > h.config.GetMaxFileSize() {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("File too large. Maximum size is %d bytes.", h.config.GetMaxFileSize()))
		return
	}

	originalName := strings.TrimSpace(filepath.Base(header.Filename))
	if originalName == "" || originalName == "." || originalName == string(filepath.Separator) {
		originalName = "document"
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimeTypeFromExtension(originalName)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	result, err := h.documentService.Upload(r.Context(), user.ID, originalName, mimeType, data, token)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// GetDocuments lists the authenticated user's documents.
func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	documents, err := h.documentService.GetDocuments(r.Context(), user.ID, token)
	if err != nil {
		writeAppError(w, err)
		return
	}

	// Ensure JSON is [] not null when there are no documents.
	if documents == nil {
		documents = make([]*domain.Document, 0)
	}
	writeJSON(w, http.StatusOK, documents)
}

// GetDocument returns the full record for one document.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	documentID := mux.Vars(r)["id"]
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	document, err := h.documentService.GetDocument(r.Context(), documentID, user.ID, token)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, document)
}

// GetStatus serves the reconciliation protocol: ?probe=true answers the
// cheap "has content arrived yet" check, otherwise the full record is
// returned for the reconciler to replace its snapshot with.
func (h *DocumentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	documentID := mux.Vars(r)["id"]
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	if r.URL.Query().Get("probe") == "true" {
		ready, err := h.documentService.Probe(r.Context(), documentID, user.ID, token)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"has_extracted_content": ready})
		return
	}

	document, err := h.documentService.GetDocument(r.Context(), documentID, user.ID, token)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, document)
}

// RetryDocument re-enters processing for a failed (or completed) document.
func (h *DocumentHandler) RetryDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, ok := GetTokenFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token not found in context")
		return
	}

	documentID := mux.Vars(r)["id"]
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	result, err := h.documentService.Retry(r.Context(), documentID, user.ID, token)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// StreamEvents is the push surface: a server-sent-events stream of full
// document records published on the hub. The stream ends once a terminal
// record has been delivered or the client goes away.
func (h *DocumentHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := GetUserFromContext(r); !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	documentID := mux.Vars(r)["id"]
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	updates, cancel := h.hub.Subscribe(documentID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case doc, open := <-updates:
			if !open {
				return
			}
			payload, err := json.Marshal(doc)
			if err != nil {
				h.logger.Warn("Failed to encode push record", "doc_id", documentID, "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			if doc.Status.Terminal() {
				return
			}
		}
	}
}

func mimeTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
