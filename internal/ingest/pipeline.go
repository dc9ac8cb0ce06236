package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"docai/internal/config"
	"docai/internal/middleware"
	"docai/internal/text"
)

// Pipeline runs extract -> chunk -> embed -> store for one document.
// It never fails the caller: every per-chunk error is isolated and logged,
// and the parent upload stays valid even when indexing fails entirely.
type Pipeline struct {
	extractor    Extractor
	splitter     text.Splitter
	embedder     Embedder
	index        VectorIndex
	publisher    EventPublisher
	concurrency  int
	embedTimeout time.Duration
}

func NewPipeline(ex Extractor, sp text.Splitter, em Embedder, idx VectorIndex, pub EventPublisher, concurrency int, embedTimeout time.Duration) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	if embedTimeout <= 0 {
		embedTimeout = 60 * time.Second
	}
	return &Pipeline{
		extractor:    ex,
		splitter:     sp,
		embedder:     em,
		index:        idx,
		publisher:    pub,
		concurrency:  concurrency,
		embedTimeout: embedTimeout,
	}
}

// Ingest returns the count of chunks that made it into the vector index.
func (p *Pipeline) Ingest(ctx context.Context, doc Document) int {
	raw, err := p.extractor.Extract(ctx, doc.FilePath, doc.ContentType)
	if err != nil {
		slog.ErrorContext(ctx, "text extraction failed", "error", err, "document_id", doc.ID, "file_name", doc.FileName)
		p.publishResult(ctx, doc, 0, 0)
		return 0
	}

	if strings.TrimSpace(raw) == "" {
		slog.WarnContext(ctx, "no content extracted", "document_id", doc.ID, "file_name", doc.FileName)
		p.publishResult(ctx, doc, 0, 0)
		return 0
	}

	chunks := p.splitter.Split(raw)
	if len(chunks) == 0 {
		slog.WarnContext(ctx, "no chunks produced", "document_id", doc.ID, "file_name", doc.FileName)
		p.publishResult(ctx, doc, 0, 0)
		return 0
	}

	uploadedAt := time.Now().UTC().Format(time.RFC3339)
	meta := Metadata{
		FileName:     doc.FileName,
		CategoryID:   doc.CategoryID,
		CategoryName: doc.CategoryName,
		ContentType:  doc.ContentType,
		FileSize:     doc.FileSize,
		UploadedAt:   uploadedAt,
	}

	var stored atomic.Int64

	// Chunks have no ordering dependency once split, so embed+store runs
	// concurrently. Worker errors stay inside their goroutine.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, content := range chunks {
		g.Go(func() error {
			if err := p.processChunk(gctx, doc, i, content, meta); err != nil {
				slog.ErrorContext(gctx, "chunk ingestion failed", "error", err,
					"document_id", doc.ID, "chunk_index", i)
				return nil
			}
			stored.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	count := int(stored.Load())
	slog.InfoContext(ctx, "document ingestion finished",
		"document_id", doc.ID, "file_name", doc.FileName,
		"chunks_stored", count, "chunks_total", len(chunks))

	p.publishResult(ctx, doc, len(chunks), count)
	return count
}

func (p *Pipeline) processChunk(ctx context.Context, doc Document, index int, content string, meta Metadata) error {
	embedCtx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()

	vector, err := p.embedder.Embed(embedCtx, content)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return p.index.Insert(embedCtx, Chunk{
		DocumentID: doc.ID,
		ChunkIndex: index,
		Content:    content,
		Vector:     vector,
		Metadata:   meta,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (p *Pipeline) publishResult(ctx context.Context, doc Document, total, stored int) {
	if p.publisher == nil {
		return
	}

	payload, _ := json.Marshal(ResultEvent{
		DocumentID:    doc.ID,
		FileName:      doc.FileName,
		ChunksTotal:   total,
		ChunksStored:  stored,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err := p.publisher.Publish(config.TopicIngestResult, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish ingest.result event", "error", err, "document_id", doc.ID)
	}
}
