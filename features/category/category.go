package category

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("category not found")

// Category is a node in the hierarchical category tree. Children are
// assembled by the repository from parent_id references; the chunk index
// only ever sees flat lists of category ids.
type Category struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	ParentID *string    `json:"parent_id,omitempty"`
	Children []Category `json:"children,omitempty"`
}

type Repository interface {
	ListRoots(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, name string, parentID *string) (*Category, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	DescendantIDs(ctx context.Context, id string) ([]string, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListRoots(ctx context.Context) ([]Category, error) {
	return s.repo.ListRoots(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string, parentID *string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}
	return s.repo.Create(ctx, name, parentID)
}

func (s *Service) Update(ctx context.Context, id, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}
	if err := s.repo.UpdateName(ctx, id, name); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// DescendantIDs returns the id of the category plus every category below
// it, for pre-resolving category-scoped searches.
func (s *Service) DescendantIDs(ctx context.Context, id string) ([]string, error) {
	return s.repo.DescendantIDs(ctx, id)
}
