package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"docai/features/category"
	"docai/features/document"
	"docai/internal/ingest"
	"docai/internal/middleware"
)

type DocumentFetcher interface {
	Get(ctx context.Context, id string) (*document.Document, error)
}

type CategoryFetcher interface {
	Get(ctx context.Context, id string) (*category.Category, error)
}

type ChunkIndex interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}

type Ingestor interface {
	Ingest(ctx context.Context, doc ingest.Document) int
}

// IngestConsumer re-ingests a document on demand: old vectors out, fresh
// chunks in. Driven by the ingest.task topic.
type IngestConsumer struct {
	documents  DocumentFetcher
	categories CategoryFetcher
	index      ChunkIndex
	ingestor   Ingestor
}

func NewIngestConsumer(documents DocumentFetcher, categories CategoryFetcher, index ChunkIndex, ingestor Ingestor) *IngestConsumer {
	return &IngestConsumer{
		documents:  documents,
		categories: categories,
		index:      index,
		ingestor:   ingestor,
	}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload TaskPayload
	err := json.Unmarshal(m.Body, &payload)

	correlationID := payload.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	if err != nil {
		slog.ErrorContext(ctx, "invalid message format", "error", err)
		return nil // Don't retry invalid messages
	}
	if payload.DocumentID == "" {
		slog.ErrorContext(ctx, "missing document_id, dropping")
		return nil
	}

	doc, err := h.documents.Get(ctx, payload.DocumentID)
	if err != nil {
		// The document may have been deleted since the task was queued.
		slog.WarnContext(ctx, "document not found for resync, dropping", "document_id", payload.DocumentID, "error", err)
		return nil
	}

	cat, err := h.categories.Get(ctx, doc.CategoryID)
	if err != nil {
		slog.ErrorContext(ctx, "category lookup failed for resync", "category_id", doc.CategoryID, "error", err)
		return err
	}

	if err := h.index.DeleteByDocument(ctx, doc.ID); err != nil {
		slog.ErrorContext(ctx, "failed to delete old chunks, requeueing", "document_id", doc.ID, "error", err)
		return err
	}

	stored := h.ingestor.Ingest(ctx, ingest.Document{
		ID:           doc.ID,
		FileName:     doc.FileName,
		FilePath:     doc.FilePath,
		ContentType:  doc.ContentType,
		FileSize:     doc.FileSize,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
	})

	slog.InfoContext(ctx, "document resync finished", "document_id", doc.ID, "chunks_stored", stored)
	return nil
}
