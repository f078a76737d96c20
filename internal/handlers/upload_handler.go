// -----------------------------------------------------------------------
// Upload handler - receives PDF bytes into an upload slot by token
// -----------------------------------------------------------------------

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
)

// UploadHandler stores uploaded PDFs against their job documents.
type UploadHandler struct {
	storage  interfaces.StorageManager
	files    interfaces.FileStorage
	maxBytes int64
	logger   arbor.ILogger
}

func NewUploadHandler(storage interfaces.StorageManager, files interfaces.FileStorage, maxBytes int64, logger arbor.ILogger) *UploadHandler {
	return &UploadHandler{
		storage:  storage,
		files:    files,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// UploadHandler receives the PDF body for an upload slot.
// PUT /api/uploads/{token}
func (h *UploadHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}
	ctx := r.Context()

	token := strings.TrimPrefix(r.URL.Path, "/api/uploads/")
	if token == "" || strings.Contains(token, "/") {
		WriteError(w, http.StatusBadRequest, "Upload token is required")
		return
	}

	doc, err := h.storage.DocumentStorage().GetDocumentByUploadToken(ctx, token)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Unknown upload token")
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "Upload exceeds maximum size")
		return
	}
	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "Upload body is empty")
		return
	}

	if err := h.files.Put(ctx, doc.StorageKey, data); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to store upload: "+err.Error())
		return
	}

	sum := sha256.Sum256(data)
	doc.ContentHash = hex.EncodeToString(sum[:])
	doc.UploadedAt = time.Now()
	if err := h.storage.DocumentStorage().SaveDocument(ctx, doc); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to update document: "+err.Error())
		return
	}

	h.logger.Info().
		Str("document_id", doc.ID).
		Str("filename", doc.Filename).
		Int("bytes", len(data)).
		Msg("Document uploaded")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"document_id":  doc.ID,
		"content_hash": doc.ContentHash,
		"bytes":        len(data),
	})
}
