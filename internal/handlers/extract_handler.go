// -----------------------------------------------------------------------
// Extract handler - synchronous PDF extraction endpoint
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// ExtractHandler handles direct extraction requests
type ExtractHandler struct {
	pdf      interfaces.PDFExtractService
	validate *validator.Validate
	logger   arbor.ILogger
}

func NewExtractHandler(pdf interfaces.PDFExtractService, logger arbor.ILogger) *ExtractHandler {
	return &ExtractHandler{
		pdf:      pdf,
		validate: validator.New(),
		logger:   logger,
	}
}

// ExtractHandler runs extraction over a PDF URL and returns the result
// synchronously.
// POST /api/extract
func (h *ExtractHandler) ExtractHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req interfaces.ExtractRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if req.Hints != nil {
		if err := h.validate.Struct(req.Hints); err != nil {
			WriteError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
			return
		}
	}

	result, err := h.pdf.Extract(r.Context(), &req)
	if err != nil {
		ee := models.AsExtractError(err)
		h.logger.Warn().
			Str("url", req.PDFURL).
			Str("code", string(ee.Code)).
			Str("error", ee.Message).
			Msg("Extraction failed")
		WriteJSON(w, ee.HTTPStatus(), map[string]interface{}{
			"status":  "error",
			"code":    ee.Code,
			"message": ee.Message,
			"details": ee.Details,
		})
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
