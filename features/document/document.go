package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"docai/features/category"
	"docai/internal/config"
	"docai/internal/ingest"
	"docai/internal/middleware"
)

var ErrNotFound = errors.New("document not found")

type Document struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"-"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	ListByCategory(ctx context.Context, categoryID string) ([]Document, error)
	Delete(ctx context.Context, id string) error
}

// ChunkIndex is the slice of the vector store the document lifecycle needs:
// cascade-deleting a document's chunks.
type ChunkIndex interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}

// Ingestor runs the chunk-embed-store pipeline for one stored document.
type Ingestor interface {
	Ingest(ctx context.Context, doc ingest.Document) int
}

type CategoryResolver interface {
	Get(ctx context.Context, id string) (*category.Category, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo       Repository
	categories CategoryResolver
	ingestor   Ingestor
	index      ChunkIndex
	pub        EventPublisher
	uploadDir  string
}

func NewService(repo Repository, categories CategoryResolver, ingestor Ingestor, index ChunkIndex, pub EventPublisher, uploadDir string) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		ingestor:   ingestor,
		index:      index,
		pub:        pub,
		uploadDir:  uploadDir,
	}
}

// UploadResult reports what happened to one uploaded file. ChunksStored is
// informational: a zero there never fails the upload.
type UploadResult struct {
	Document     *Document `json:"document"`
	ChunksStored int       `json:"chunks_stored"`
}

// Upload stores the file, records the document row, then runs ingestion.
// Indexing failure leaves the document a valid, retrievable artifact.
func (s *Service) Upload(ctx context.Context, categoryID, fileName, contentType string, size int64, content io.Reader) (*UploadResult, error) {
	cat, err := s.categories.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	path, err := s.storeFile(fileName, content)
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	doc := &Document{
		CategoryID:  categoryID,
		FileName:    fileName,
		FilePath:    path,
		ContentType: contentType,
		FileSize:    size,
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		// The orphaned file is unreachable without a row; clean it up.
		_ = os.Remove(path)
		return nil, err
	}

	stored := s.ingestor.Ingest(ctx, ingest.Document{
		ID:           doc.ID,
		FileName:     doc.FileName,
		FilePath:     doc.FilePath,
		ContentType:  doc.ContentType,
		FileSize:     doc.FileSize,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
	})

	return &UploadResult{Document: doc, ChunksStored: stored}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByCategory(ctx context.Context, categoryID string) ([]Document, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}

// Delete removes the document's vectors, its stored file, and its row.
// Vector deletion failures propagate: a half-deleted document must not look
// deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
		slog.WarnContext(ctx, "failed to remove stored file", "error", err, "path", doc.FilePath)
	}

	return s.repo.Delete(ctx, id)
}

// Resync queues a re-ingestion of the document through the ingest.task
// topic; the worker deletes the old vectors before re-inserting.
func (s *Service) Resync(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	payload, _ := json.Marshal(map[string]string{
		"document_id":    id,
		"correlation_id": middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicIngestTask, payload); err != nil {
		return fmt.Errorf("publish ingest.task: %w", err)
	}
	slog.InfoContext(ctx, "published ingest.task event", "document_id", id)
	return nil
}

func (s *Service) storeFile(fileName string, content io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o750); err != nil {
		return "", err
	}

	unique := time.Now().Format("20060102150405") + "_" + filepath.Base(fileName)
	path := filepath.Join(s.uploadDir, unique)

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}
