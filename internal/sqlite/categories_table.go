package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

const upsertCategory = `INSERT INTO categories (name, color) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET color = excluded.color`

var _ types.CategoryStore = (*categoriesTable)(nil)

type categoriesTable struct {
	backend *Backend
}

// GetAll returns category names in insertion order.
func (ct *categoriesTable) GetAll(ctx context.Context) ([]string, error) {
	list, err := ct.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for _, c := range list {
		names = append(names, c.Name)
	}
	return names, nil
}

// List returns categories with their colors in insertion order.
func (ct *categoriesTable) List(ctx context.Context) ([]types.Category, error) {
	db, release, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx, "SELECT name, color FROM categories ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	results := []types.Category{}
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("hydrating category: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return results, nil
}

// Save upserts the category by normalized name. A stored color is kept when
// c carries none.
func (ct *categoriesTable) Save(ctx context.Context, c types.Category) (types.Category, error) {
	db, release, err := ct.backend.conn()
	if err != nil {
		return types.Category{}, err
	}
	defer release()

	c.Name = types.NormalizeCategoryName(c.Name)
	if c.Color == "" && c.Name != "" {
		var existing string
		err := db.QueryRowContext(ctx, "SELECT color FROM categories WHERE name = ?", c.Name).Scan(&existing)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, fmt.Errorf("reading category %s: %w", c.Name, err)
		}
		c.Color = existing
	}
	c, err = c.Normalized()
	if err != nil {
		return types.Category{}, err
	}

	if _, err := db.ExecContext(ctx, upsertCategory, c.Name, c.Color); err != nil {
		return types.Category{}, fmt.Errorf("saving category %s: %w", c.Name, err)
	}
	return c, nil
}
