package postgres

import (
	"context"

	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/storage"
)

func (s *Store) ListCategories(ctx context.Context, params storage.ListParams) ([]models.Category, error) {
	return list(ctx, s.db, categoriesTable, params, scanCategory)
}

func (s *Store) FindCategory(ctx context.Context, id int64) (models.Category, error) {
	const q = `SELECT id, user_id, title, created_at, updated_at FROM categories WHERE id = $1`
	c, err := scanCategory(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return models.Category{}, translate(err)
	}
	return c, nil
}

func (s *Store) CategoryExists(ctx context.Context, id, userID int64) (bool, error) {
	return exists(ctx, s.db, categoriesTable, id, userID)
}

func (s *Store) CreateCategory(ctx context.Context, c models.Category) (int64, error) {
	const q = `INSERT INTO categories (user_id, title) VALUES ($1, $2) RETURNING id`
	var id int64
	if err := s.db.QueryRowContext(ctx, q, c.UserID, c.Title).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, patch storage.CategoryPatch) (int64, error) {
	var sets []assignment
	if patch.Title != nil {
		sets = append(sets, assignment{"title", *patch.Title})
	}
	return update(ctx, s.db, categoriesTable, id, sets)
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	return remove(ctx, s.db, categoriesTable, id)
}

func scanCategory(row rowScanner) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
