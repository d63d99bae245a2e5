package postgres

import (
	"context"

	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/storage"
)

func (s *Store) ListProducts(ctx context.Context, params storage.ListParams) ([]models.Product, error) {
	return list(ctx, s.db, productsTable, params, scanProduct)
}

func (s *Store) FindProduct(ctx context.Context, id int64) (models.Product, error) {
	const q = `SELECT id, user_id, category_id, title, image, description, price, quantity, created_at, updated_at
		FROM products WHERE id = $1`
	p, err := scanProduct(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return models.Product{}, translate(err)
	}
	return p, nil
}

func (s *Store) ProductExists(ctx context.Context, id, userID int64) (bool, error) {
	return exists(ctx, s.db, productsTable, id, userID)
}

func (s *Store) CreateProduct(ctx context.Context, p models.Product) (int64, error) {
	const q = `
		INSERT INTO products (user_id, category_id, title, image, description, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := s.db.QueryRowContext(ctx, q, p.UserID, p.CategoryID, p.Title, p.Image, p.Description, p.Price, p.Quantity).Scan(&id)
	if err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, patch storage.ProductPatch) (int64, error) {
	var sets []assignment
	if patch.CategoryID != nil {
		sets = append(sets, assignment{"category_id", *patch.CategoryID})
	}
	if patch.Title != nil {
		sets = append(sets, assignment{"title", *patch.Title})
	}
	if patch.Image != nil {
		sets = append(sets, assignment{"image", *patch.Image})
	}
	if patch.Description != nil {
		sets = append(sets, assignment{"description", *patch.Description})
	}
	if patch.Price != nil {
		sets = append(sets, assignment{"price", *patch.Price})
	}
	if patch.Quantity != nil {
		sets = append(sets, assignment{"quantity", *patch.Quantity})
	}
	return update(ctx, s.db, productsTable, id, sets)
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	return remove(ctx, s.db, productsTable, id)
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.UserID, &p.CategoryID, &p.Title, &p.Image, &p.Description,
		&p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
