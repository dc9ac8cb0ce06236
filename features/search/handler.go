package search

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"docai/features/category"
	"docai/features/document"
	"docai/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

func (h *Handler) AnswerInCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readQuery(w, r)
	if !ok {
		return
	}

	resp, err := h.service.AnswerInCategory(r.Context(), r.PathValue("id"), req.Query, req.TopK)
	if err != nil {
		h.handleError(r.Context(), w, err, "category search failed")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) AnswerInDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readQuery(w, r)
	if !ok {
		return
	}

	resp, err := h.service.AnswerInDocument(r.Context(), r.PathValue("id"), req.Query, req.TopK)
	if err != nil {
		h.handleError(r.Context(), w, err, "document search failed")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) StreamAnswerInCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readQuery(w, r)
	if !ok {
		return
	}

	stream, err := h.service.StreamAnswerInCategory(r.Context(), r.PathValue("id"), req.Query, req.TopK)
	if err != nil {
		h.handleError(r.Context(), w, err, "category stream failed")
		return
	}
	h.writeStream(w, r, stream)
}

func (h *Handler) StreamAnswerInDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readQuery(w, r)
	if !ok {
		return
	}

	stream, err := h.service.StreamAnswerInDocument(r.Context(), r.PathValue("id"), req.Query, req.TopK)
	if err != nil {
		h.handleError(r.Context(), w, err, "document stream failed")
		return
	}
	h.writeStream(w, r, stream)
}

func (h *Handler) readQuery(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return req, false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// writeStream sends answer fragments as they arrive. A client disconnect
// cancels the request context, which stops the model call upstream.
func (h *Handler) writeStream(w http.ResponseWriter, r *http.Request, stream <-chan string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for fragment := range stream {
		if _, err := w.Write([]byte(fragment)); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (h *Handler) handleError(ctx context.Context, w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, category.ErrNotFound) {
		h.writeError(ctx, w, "NOT_FOUND", "Category not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, document.ErrNotFound) {
		h.writeError(ctx, w, "NOT_FOUND", "Document not found", http.StatusNotFound)
		return
	}
	slog.ErrorContext(ctx, logMsg, "error", err)
	h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
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
