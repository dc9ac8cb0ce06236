// Package extract turns stored document files into plain text for chunking.
// Formats without a text path (images, unknown binaries) yield empty text,
// which ingestion treats as "no content" rather than a failure.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its plain text. The declared
// contentType is consulted first, falling back to the file extension.
func (e *Extractor) Extract(ctx context.Context, path, contentType string) (string, error) {
	switch {
	case isPDF(path, contentType):
		return extractPDF(path)
	case isPlainText(path, contentType):
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(data), nil
	default:
		slog.InfoContext(ctx, "no text extraction for content type, treating as opaque",
			"path", filepath.Base(path), "content_type", contentType)
		return "", nil
	}
}

func isPDF(path, contentType string) bool {
	return contentType == "application/pdf" || strings.EqualFold(filepath.Ext(path), ".pdf")
}

func isPlainText(path, contentType string) bool {
	if strings.HasPrefix(contentType, "text/") ||
		contentType == "application/json" || contentType == "application/csv" {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".csv", ".json", ".log":
		return true
	}
	return false
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}
