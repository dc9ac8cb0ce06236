package document

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepo(db), mock
}

func TestRepoSave(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs("cat-1", "manual.pdf", "/uploads/x_manual.pdf", "application/pdf", int64(2048)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("doc-1", now, now))

	doc := &Document{
		CategoryID:  "cat-1",
		FileName:    "manual.pdf",
		FilePath:    "/uploads/x_manual.pdf",
		ContentType: "application/pdf",
		FileSize:    2048,
	}
	require.NoError(t, repo.Save(context.Background(), doc))
	assert.Equal(t, "doc-1", doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoGet(t *testing.T) {
	cols := []string{"id", "category_id", "file_name", "file_path", "content_type", "file_size", "created_at", "updated_at"}

	t.Run("Found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("doc-1", "cat-1", "manual.pdf", "/uploads/x.pdf", "application/pdf", int64(2048), now, now))

		doc, err := repo.Get(context.Background(), "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "manual.pdf", doc.FileName)
		assert.Equal(t, int64(2048), doc.FileSize)
	})

	t.Run("Not Found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepoListByCategory(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "category_id", "file_name", "file_path", "content_type", "file_size", "created_at", "updated_at"}).
		AddRow("doc-2", "cat-1", "b.pdf", "/u/b.pdf", "application/pdf", int64(1), now, now).
		AddRow("doc-1", "cat-1", "a.pdf", "/u/a.pdf", "application/pdf", int64(1), now, now)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE category_id = $1")).
		WithArgs("cat-1").
		WillReturnRows(rows)

	docs, err := repo.ListByCategory(context.Background(), "cat-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b.pdf", docs[0].FileName)
}

func TestRepoDelete(t *testing.T) {
	t.Run("Deleted", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1")).
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), "doc-1"))
	})

	t.Run("Missing Row", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1")).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), ErrNotFound)
	})
}
