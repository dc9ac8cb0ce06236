package category

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	roots     []Category
	cats      map[string]*Category
	createdID string
}

func (s *stubRepo) ListRoots(ctx context.Context) ([]Category, error) { return s.roots, nil }

func (s *stubRepo) Get(ctx context.Context, id string) (*Category, error) {
	if c, ok := s.cats[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, name string, parentID *string) (*Category, error) {
	return &Category{ID: s.createdID, Name: name, ParentID: parentID}, nil
}

func (s *stubRepo) UpdateName(ctx context.Context, id, name string) error {
	c, ok := s.cats[id]
	if !ok {
		return ErrNotFound
	}
	c.Name = name
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	if _, ok := s.cats[id]; !ok {
		return ErrNotFound
	}
	delete(s.cats, id)
	return nil
}

func (s *stubRepo) DescendantIDs(ctx context.Context, id string) ([]string, error) {
	if _, ok := s.cats[id]; !ok {
		return nil, ErrNotFound
	}
	return []string{id}, nil
}

func newTestHandler() (*Handler, *stubRepo) {
	repo := &stubRepo{
		roots:     []Category{{ID: "root-1", Name: "Policies"}},
		cats:      map[string]*Category{"root-1": {ID: "root-1", Name: "Policies"}},
		createdID: "new-1",
	}
	return NewHandler(NewService(repo)), repo
}

func TestHandlerList(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Policies", body.Data[0].Name)
}

func TestHandlerGet(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		h, _ := newTestHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/categories/root-1", nil)
		req.SetPathValue("id", "root-1")
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Not Found Uses Error Envelope", func(t *testing.T) {
		h, _ := newTestHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/categories/missing", nil)
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})
}

func TestHandlerCreate(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		h, _ := newTestHandler()

		req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":"HR","parent_id":"root-1"}`))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var body struct {
			Data Category `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "new-1", body.Data.ID)
		assert.Equal(t, "HR", body.Data.Name)
	})

	t.Run("Missing Name", func(t *testing.T) {
		h, _ := newTestHandler()

		req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":""}`))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Malformed Body", func(t *testing.T) {
		h, _ := newTestHandler()

		req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlerUpdate(t *testing.T) {
	h, repo := newTestHandler()

	req := httptest.NewRequest(http.MethodPut, "/api/categories/root-1", strings.NewReader(`{"name":"Renamed"}`))
	req.SetPathValue("id", "root-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", repo.cats["root-1"].Name)
}

func TestHandlerDelete(t *testing.T) {
	t.Run("Deleted", func(t *testing.T) {
		h, repo := newTestHandler()

		req := httptest.NewRequest(http.MethodDelete, "/api/categories/root-1", nil)
		req.SetPathValue("id", "root-1")
		rec := httptest.NewRecorder()
		h.Delete(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, repo.cats, "root-1")
	})

	t.Run("Not Found", func(t *testing.T) {
		h, _ := newTestHandler()

		req := httptest.NewRequest(http.MethodDelete, "/api/categories/missing", nil)
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()
		h.Delete(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
