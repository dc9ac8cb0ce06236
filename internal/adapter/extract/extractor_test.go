package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	e := New()
	ctx := context.Background()

	t.Run("Plain Text By Content Type", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes")
		require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))

		text, err := e.Extract(ctx, path, "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "hello world", text)
	})

	t.Run("Plain Text By Extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "readme.md")
		require.NoError(t, os.WriteFile(path, []byte("# Title"), 0o600))

		text, err := e.Extract(ctx, path, "application/octet-stream")
		require.NoError(t, err)
		assert.Equal(t, "# Title", text)
	})

	t.Run("JSON Is Text", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"k":"v"}`), 0o600))

		text, err := e.Extract(ctx, path, "application/json")
		require.NoError(t, err)
		assert.Equal(t, `{"k":"v"}`, text)
	})

	t.Run("Unsupported Type Is Opaque Not An Error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "image.png")
		require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0o600))

		text, err := e.Extract(ctx, path, "image/png")
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("Missing Text File Is An Error", func(t *testing.T) {
		_, err := e.Extract(ctx, filepath.Join(t.TempDir(), "gone.txt"), "text/plain")
		assert.Error(t, err)
	})

	t.Run("Corrupt PDF Is An Error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.pdf")
		require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o600))

		_, err := e.Extract(ctx, path, "application/pdf")
		assert.Error(t, err)
	})
}
