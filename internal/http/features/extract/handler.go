package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/codevault/codevault/internal/httputil"
	"github.com/codevault/codevault/pkg/domain"
	"github.com/codevault/codevault/pkg/vault"
)

// Handler handles code extraction from uploaded text.
type Handler struct {
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a new extract handler.
func NewHandler(logger *slog.Logger, maxUploadSize int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

// Response represents the extraction result.
type Response struct {
	Codes   []string `json:"codes"`
	Count   int      `json:"count"`
	Message string   `json:"message"`
}

// textRequest is the JSON body used for pre-extracted text (the PDF path:
// extraction happens client-side, only decoded text crosses this boundary).
type textRequest struct {
	Text string `json:"text"`
}

// Extract handles POST /v1/vault/extract. Accepts either a multipart .txt
// upload or a JSON body with pre-extracted text.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	var text string
	if strings.HasPrefix(contentType, "multipart/form-data") {
		var ok bool
		text, ok = h.readUpload(w, r)
		if !ok {
			return
		}
	} else {
		var req textRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		text = req.Text
	}

	codes, err := vault.ExtractCodes(text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyInput):
			httputil.Error(w, http.StatusBadRequest, "file is empty or contains no text")
		case errors.Is(err, domain.ErrNoCodesFound):
			httputil.Error(w, http.StatusUnprocessableEntity, "no backup codes found in the file")
		default:
			h.logger.Error("failed to extract codes", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "failed to extract codes")
		}
		return
	}

	httputil.JSON(w, http.StatusOK, Response{
		Codes:   codes,
		Count:   len(codes),
		Message: fmt.Sprintf("extracted %d backup codes", len(codes)),
	})
}

// readUpload pulls plain text out of a multipart upload. Only .txt files
// are accepted here; PDFs must be converted to text on the client before
// upload, so raw binary never crosses into the extractor.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid or oversized upload")
		return "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "no file uploaded")
		return "", false
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		httputil.Error(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
		return "", false
	}

	switch ext := strings.ToLower(filepath.Ext(header.Filename)); ext {
	case ".txt":
	case ".pdf":
		httputil.Error(w, http.StatusBadRequest,
			"PDF files are processed client-side; upload the extracted text instead")
		return "", false
	default:
		httputil.Error(w, http.StatusBadRequest, "only .txt files are supported")
		return "", false
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize))
	if err != nil {
		h.logger.Error("failed to read upload", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to read upload")
		return "", false
	}

	return string(data), true
}
