package ingest

import (
	"context"
	"time"
)

// Document carries the stored-file facts the pipeline needs. The document
// row itself is owned by the document feature; this is read-only input.
type Document struct {
	ID           string
	FileName     string
	FilePath     string
	ContentType  string
	FileSize     int64
	CategoryID   string
	CategoryName string
}

// Metadata is the bag persisted alongside every chunk.
type Metadata struct {
	FileName     string
	CategoryID   string
	CategoryName string
	ContentType  string
	FileSize     int64
	UploadedAt   string
}

// Chunk is the unit of embedding and retrieval. Chunk indices within one
// document are zero-based and consecutive in source order.
type Chunk struct {
	DocumentID string
	ChunkIndex int
	Content    string
	Vector     []float32
	Metadata   Metadata
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ResultEvent is published to the ingest.result topic once per document.
type ResultEvent struct {
	DocumentID    string `json:"document_id"`
	FileName      string `json:"file_name"`
	ChunksTotal   int    `json:"chunks_total"`
	ChunksStored  int    `json:"chunks_stored"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type Extractor interface {
	Extract(ctx context.Context, path, contentType string) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	Insert(ctx context.Context, chunk Chunk) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}
