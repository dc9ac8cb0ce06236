package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"docai/features/category"
	"docai/internal/middleware"
)

type Handler struct {
	service       *Service
	maxUploadSize int64
}

func NewHandler(service *Service, maxUploadSizeMB int64) *Handler {
	return &Handler{service: service, maxUploadSize: maxUploadSizeMB << 20}
}

// Upload handles a single multipart file upload into a category.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	categoryID := r.FormValue("categoryId")
	if categoryID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "categoryId is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.service.Upload(r.Context(), categoryID, header.Filename, contentTypeFor(header.Filename), header.Size, file)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Category not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to upload document", "error", err, "file_name", header.Filename)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"data": result})
}

// UploadMultiple accepts several files in one request. Each file is processed
// independently; one failure does not abort the rest.
func (h *Handler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	categoryID := r.FormValue("categoryId")
	if categoryID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "categoryId is required", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "files are required", http.StatusBadRequest)
		return
	}

	type fileOutcome struct {
		FileName string        `json:"file_name"`
		Result   *UploadResult `json:"result,omitempty"`
		Error    string        `json:"error,omitempty"`
	}

	outcomes := make([]fileOutcome, 0, len(headers))
	for _, header := range headers {
		outcome := fileOutcome{FileName: header.Filename}

		file, err := header.Open()
		if err != nil {
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}

		result, err := h.service.Upload(r.Context(), categoryID, header.Filename, contentTypeFor(header.Filename), header.Size, file)
		file.Close()
		if err != nil {
			if errors.Is(err, category.ErrNotFound) {
				h.writeError(r.Context(), w, "NOT_FOUND", "Category not found", http.StatusNotFound)
				return
			}
			slog.ErrorContext(r.Context(), "failed to upload document", "error", err, "file_name", header.Filename)
			outcome.Error = "upload failed"
		} else {
			outcome.Result = result
		}
		outcomes = append(outcomes, outcome)
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"data": outcomes})
}

func (h *Handler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryId")
	docs, err := h.service.ListByCategory(r.Context(), categoryID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list documents", "error", err, "category_id", categoryID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []Document{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": docs})
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Document not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to get document", "error", err, "id", id)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"document":       doc,
			"file_size_text": formatFileSize(doc.FileSize),
		},
	})
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Document not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to get document", "error", err, "id", id)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	f, err := os.Open(doc.FilePath)
	if err != nil {
		slog.ErrorContext(r.Context(), "stored file missing", "error", err, "id", id, "path", doc.FilePath)
		h.writeError(r.Context(), w, "NOT_FOUND", "Stored file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentTypeFor(doc.FileName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	http.ServeContent(w, r, doc.FileName, doc.UpdatedAt, f)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Document not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete document", "error", err, "id", id)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Resync(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.Resync(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Document not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to queue resync", "error", err, "id", id)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func contentTypeFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".log":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGT"[exp])
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
