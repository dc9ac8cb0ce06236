package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"manual.pdf", "application/pdf"},
		{"Manual.PDF", "application/pdf"},
		{"notes.txt", "text/plain"},
		{"readme.md", "text/markdown"},
		{"export.csv", "text/csv"},
		{"config.json", "application/json"},
		{"page.html", "text/html"},
		{"archive.zip", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, contentTypeFor(tt.fileName), tt.fileName)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFileSize(tt.size), "size %d", tt.size)
	}
}
