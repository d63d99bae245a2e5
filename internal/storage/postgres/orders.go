package postgres

import (
	"context"

	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/storage"
)

func (s *Store) ListOrders(ctx context.Context, params storage.ListParams) ([]models.Order, error) {
	return list(ctx, s.db, ordersTable, params, scanOrder)
}

func (s *Store) FindOrder(ctx context.Context, id int64) (models.Order, error) {
	const q = `SELECT id, user_id, product_id, quantity, paid, created_at, updated_at FROM orders WHERE id = $1`
	o, err := scanOrder(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return models.Order{}, translate(err)
	}
	return o, nil
}

func (s *Store) OrderExists(ctx context.Context, id, userID int64) (bool, error) {
	return exists(ctx, s.db, ordersTable, id, userID)
}

func (s *Store) CreateOrder(ctx context.Context, o models.Order) (int64, error) {
	const q = `INSERT INTO orders (user_id, product_id, quantity, paid) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	if err := s.db.QueryRowContext(ctx, q, o.UserID, o.ProductID, o.Quantity, o.Paid).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (s *Store) UpdateOrder(ctx context.Context, id int64, patch storage.OrderPatch) (int64, error) {
	var sets []assignment
	if patch.ProductID != nil {
		sets = append(sets, assignment{"product_id", *patch.ProductID})
	}
	if patch.Quantity != nil {
		sets = append(sets, assignment{"quantity", *patch.Quantity})
	}
	if patch.Paid != nil {
		sets = append(sets, assignment{"paid", *patch.Paid})
	}
	return update(ctx, s.db, ordersTable, id, sets)
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) (int64, error) {
	return remove(ctx, s.db, ordersTable, id)
}

func scanOrder(row rowScanner) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.Paid, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
