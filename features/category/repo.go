package category

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListRoots(ctx context.Context) ([]Category, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	tree := buildTree(all)
	roots := make([]Category, 0)
	for _, c := range tree {
		if c.ParentID == nil {
			roots = append(roots, c)
		}
	}
	return roots, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Category, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range buildTree(all) {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *PostgresRepo) Create(ctx context.Context, name string, parentID *string) (*Category, error) {
	c := &Category{Name: name, ParentID: parentID}
	query := `INSERT INTO categories (name, parent_id) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, name, parentID).Scan(&c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepo) UpdateName(ctx context.Context, id, name string) error {
	query := `UPDATE categories SET name = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, name, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DescendantIDs walks the subtree with a recursive CTE. The result always
// includes the starting id itself.
func (r *PostgresRepo) DescendantIDs(ctx context.Context, id string) ([]string, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id FROM categories WHERE id = $1
			UNION ALL
			SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, err
		}
		ids = append(ids, cid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return ids, nil
}

func (r *PostgresRepo) loadAll(ctx context.Context) ([]Category, error) {
	query := `SELECT id, name, parent_id FROM categories ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []Category
	for rows.Next() {
		var c Category
		var parentID sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &parentID); err != nil {
			return nil, err
		}
		if parentID.Valid {
			c.ParentID = &parentID.String
		}
		all = append(all, c)
	}
	return all, rows.Err()
}

// buildTree assembles parent->children once per query instead of keeping a
// live bidirectional object graph. Every node comes back with its full
// subtree attached.
func buildTree(all []Category) []Category {
	children := make(map[string][]Category, len(all))
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	var materialize func(c Category) Category
	materialize = func(c Category) Category {
		c.Children = nil
		for _, child := range children[c.ID] {
			c.Children = append(c.Children, materialize(child))
		}
		return c
	}

	result := make([]Category, 0, len(all))
	for _, c := range all {
		result = append(result, materialize(c))
	}
	return result
}
